package middleware

import (
	"sync/atomic"

	"github.com/roach88/tea"
)

// Counter counts the messages that reach it.
//
//	counter := &middleware.Counter[Env, State, Msg]{}
//	p, _ := tea.New(initial, env, handler, tea.WithMiddleware(counter.Middleware()))
//	...
//	counter.Count()
type Counter[E, S, M any] struct {
	n atomic.Int64
}

// Middleware returns the counting middleware. Every program it is installed
// in adds to the same count.
func (c *Counter[E, S, M]) Middleware() tea.Middleware[E, S, M] {
	return func(_ E, _ func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		return func(msg M) {
			c.n.Add(1)
			next(msg)
		}
	}
}

// Count returns the number of messages seen so far.
func (c *Counter[E, S, M]) Count() int64 {
	return c.n.Load()
}

// Reset sets the count back to zero.
func (c *Counter[E, S, M]) Reset() {
	c.n.Store(0)
}
