package tea

import (
	"context"
	"sync"
)

// idleTracker counts outstanding work (queued messages, the message being
// dispatched, running effects) and wakes waiters when it reaches zero.
type idleTracker struct {
	mu      sync.Mutex
	n       int
	waiters []chan struct{}
}

func (t *idleTracker) add(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.n += delta
	if t.n < 0 {
		panic("tea: idle tracker went negative")
	}
	if t.n > 0 {
		return
	}
	for _, w := range t.waiters {
		close(w)
	}
	t.waiters = nil
}

func (t *idleTracker) outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

func (t *idleTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	if t.n == 0 {
		t.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	t.waiters = append(t.waiters, w)
	t.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
