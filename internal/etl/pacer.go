package etl

import (
	"context"
	"time"
)

// DefaultPace is the wait between two records.
const DefaultPace = 100 * time.Millisecond

// Pacer throttles outbound writes.
type Pacer interface {
	Wait(ctx context.Context)
}

// FixedDelay waits a constant duration on every call.
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) {
	if p.Delay <= 0 {
		return
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
