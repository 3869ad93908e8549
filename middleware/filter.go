package middleware

import "github.com/roach88/tea"

// Filter forwards a message only if keep returns true for it and the live
// state. Dropped messages never reach the handler and commit nothing.
func Filter[E, S, M any](keep func(state S, msg M) bool) tea.Middleware[E, S, M] {
	return func(_ E, read func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		return func(msg M) {
			if keep(read(), msg) {
				next(msg)
			}
		}
	}
}
