package http_utils

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate caps concurrent outbound calls against a single rate-limited backend.
// Waiters are served in FIFO order. Each adapter instance owns its own gate so
// unrelated providers never serialize against each other.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(capacity))}
}

func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}
