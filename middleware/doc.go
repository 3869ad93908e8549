// Package middleware provides ready-made tea.Middleware values for logging,
// counting, timing, filtering, journaling and snapshot persistence.
//
// Every middleware keeps its counters and buffers on the value that produced
// it, so two programs never share state through this package.
//
// Middlewares run on the program's update loop. Their bookkeeping is
// synchronous and must stay cheap; failures of external collaborators
// (journal, snapshot sink) are logged and never stop the dispatch.
package middleware

import "fmt"

// KindFunc names a message for logs, metrics and journals.
type KindFunc[M any] func(M) string

// TypeKind names a message by its dynamic Go type.
func TypeKind[M any](msg M) string {
	return fmt.Sprintf("%T", msg)
}

func kindOrType[M any](kind KindFunc[M]) KindFunc[M] {
	if kind == nil {
		return TypeKind[M]
	}
	return kind
}
