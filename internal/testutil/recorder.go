package testutil

import (
	"sync"
	"time"
)

// Recorder collects values delivered to a listener, typically a program
// subscription, and lets tests wait for a number of them.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
	signal chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{signal: make(chan struct{}, 1)}
}

// Record appends v. Its method value is a ready-made listener:
//
//	sub := program.Subscribe(rec.Record)
func (r *Recorder[T]) Record(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Last returns the most recent value, if any.
func (r *Recorder[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.values) == 0 {
		var zero T
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

// WaitFor blocks until at least n values were recorded or timeout elapses.
// Returns false on timeout.
func (r *Recorder[T]) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if r.Len() >= n {
			return true
		}
		select {
		case <-r.signal:
		case <-deadline.C:
			return r.Len() >= n
		}
	}
}
