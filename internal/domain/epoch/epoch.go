// Package epoch tracks in-flight calibration periods so the calibrator is
// never run concurrently with itself for the same period.
package epoch

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard records calibration periods currently being processed.
type Guard interface {
	// Acquire atomically claims a period. It returns false if the period
	// is already held by another calibration run.
	Acquire(ctx context.Context, period string) bool

	// Release frees a claimed period. Releasing an unclaimed period is a
	// no-op.
	Release(ctx context.Context, period string)

	// Size returns the number of periods currently held.
	Size() int64
}

// inMemoryGuard implements Guard with a mutex-protected set.
type inMemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
	size atomic.Int64
}

// NewInMemoryGuard creates an empty in-memory guard.
func NewInMemoryGuard() Guard {
	return &inMemoryGuard{held: make(map[string]struct{})}
}

func (g *inMemoryGuard) Acquire(_ context.Context, period string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, inFlight := g.held[period]; inFlight {
		return false
	}
	g.held[period] = struct{}{}
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Release(_ context.Context, period string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, inFlight := g.held[period]; inFlight {
		delete(g.held, period)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
