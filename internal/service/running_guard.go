package service

import "sync"

// ExportedTargetGuard is an exported alias so _test packages can test the guard.
type ExportedTargetGuard = targetGuard

// ─────────────────────────────────────────────────────────────
// targetGuard: one writer per target collection
// ─────────────────────────────────────────────────────────────

// targetGuard keeps two runs of one MigrationService from writing into the
// same target collection at once. The CLI starts a single run per process,
// so it only comes into play when the service is shared by concurrent callers.
type targetGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// TryLock marks targetID as busy. Returns false if it already is.
func (g *targetGuard) TryLock(targetID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[targetID]; ok {
		return false
	}
	g.running[targetID] = struct{}{}
	return true
}

// Unlock releases targetID. Must be called after TryLock returns true.
func (g *targetGuard) Unlock(targetID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, targetID)
}
