package tea

// Dispatch delivers a message into the program.
type Dispatch[M any] func(M)

// Middleware wraps the dispatch path for cross-cutting concerns such as
// logging, persistence or metrics.
//
// It receives the environment, a function returning the live state at the
// time it is called, and the next dispatcher in the chain. It returns the
// dispatcher presented to the middleware above it. A middleware may act
// before and after calling next, and may decline to call next at all to
// suppress a message.
//
// Any counters or buffers a middleware needs belong to the value that
// produces it, not to package-level variables.
type Middleware[E, S, M any] func(env E, read func() S, next Dispatch[M]) Dispatch[M]

// Chain builds the effective dispatcher for core and mws. The list is folded
// in reverse so that mws[0] is the outermost wrapper: for middlewares A, B,
// C the call flow is A → B → C → core.
func Chain[E, S, M any](env E, read func() S, core Dispatch[M], mws ...Middleware[E, S, M]) Dispatch[M] {
	next := core
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](env, read, next)
	}
	return next
}

// ComposeMiddleware collapses mws into a single Middleware with the same
// ordering as Chain.
func ComposeMiddleware[E, S, M any](mws ...Middleware[E, S, M]) Middleware[E, S, M] {
	mws = append([]Middleware[E, S, M](nil), mws...)
	return func(env E, read func() S, next Dispatch[M]) Dispatch[M] {
		return Chain(env, read, next, mws...)
	}
}
