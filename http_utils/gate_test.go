package http_utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGate_CapsConcurrency(t *testing.T) {
	const capacity = 2
	const workers = 10

	gate := NewGate(capacity)
	var inFlight int32
	var peak int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Error("Acquire failed:", err)
				return
			}
			defer gate.Release()

			current := atomic.AddInt32(&inFlight, 1)
			for {
				observed := atomic.LoadInt32(&peak)
				if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}

	wg.Wait()
	if peak > capacity {
		t.Fatalf("Observed %d concurrent holders, capacity is %d", peak, capacity)
	}
}

func TestGate_AcquireHonoursContext(t *testing.T) {
	gate := NewGate(1)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatal("First acquire failed:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := gate.Acquire(ctx); err == nil {
		t.Fatal("Expected the second acquire to fail once the context expired")
	}
}
