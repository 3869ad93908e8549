package tea

import "sync"

// mailbox is a thread-safe unbounded FIFO queue.
//
// The queue is unbounded so that commands publishing from inside an effect
// never block, however many follow-up messages they produce.
//
// A buffered signal channel (size 1) announces availability, which lets
// consumers wait with select alongside a context or a stop channel.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{
		items:  make([]T, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends v. Returns false if the mailbox is closed.
func (q *mailbox[T]) Enqueue(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, v)
	q.notifyLocked()
	return true
}

// TryDequeue removes the front item without blocking.
func (q *mailbox[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	// Clear the slot so the backing array does not pin the item.
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
		// Several consumers may share one mailbox; pass the wake-up on.
		q.notifyLocked()
	}

	return v, true
}

// Dequeue blocks until an item is available or the mailbox is closed and
// drained, in which case it returns false.
func (q *mailbox[T]) Dequeue() (T, bool) {
	for {
		if v, ok := q.TryDequeue(); ok {
			return v, true
		}

		q.mu.Lock()
		if q.closed && len(q.items) == 0 {
			q.mu.Unlock()
			var zero T
			return zero, false
		}
		q.mu.Unlock()

		<-q.signal
	}
}

// Wait returns a channel that fires when items may be available. The
// channel is closed once the mailbox is closed.
func (q *mailbox[T]) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued items.
func (q *mailbox[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *mailbox[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further items and wakes every waiter. Items already queued
// remain available to TryDequeue and Dequeue.
func (q *mailbox[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

func (q *mailbox[T]) notifyLocked() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
