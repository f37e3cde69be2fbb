package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"migrator/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the migration from how progress is shown
// ─────────────────────────────────────────────────────────────

// EventEmitter receives progress events from a running migration.
// The CLI prints them; tests record them with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// ConsoleEmitter prints human-readable progress lines.
type ConsoleEmitter struct {
	Out io.Writer
}

func (c *ConsoleEmitter) Emit(_ context.Context, event string, data any) {
	switch d := data.(type) {
	case etl.PageLoaded:
		fmt.Fprintf(c.Out, "   Loaded %d records...\n", d.Loaded)
	case etl.SchemaLoaded:
		fmt.Fprintf(c.Out, "Target properties: %s\n", strings.Join(d.Properties, ", "))
	case etl.BatchStarted:
		fmt.Fprintf(c.Out, "   Processing batch %d/%d...\n", d.Index, d.Total)
	case etl.RecordProcessed:
		switch {
		case d.Error != "":
			fmt.Fprintf(c.Out, "   Failed to migrate record %s: %s\n", d.RecordID, d.Error)
		case d.DryRun:
			fmt.Fprintf(c.Out, "   [DRY-RUN] would create record with properties: %s\n", strings.Join(d.Keys, ", "))
		}
	case *etl.Result:
		// The summary is printed by the caller once Run returns.
	default:
		fmt.Fprintf(c.Out, "%s: %v\n", event, data)
	}
}
