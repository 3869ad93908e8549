package tea

// HandlerFunc processes one message: it returns the updated state and a
// Command describing any follow-up work.
type HandlerFunc[E, S, M any] func(state S, msg M) (S, Command[E, M])

// MessageHandler is an immutable, ordered composition of HandlerFuncs and is
// the unit of business logic a Program runs for every message.
//
// Handlers are expected to be total over their message domain: messages a
// handler does not recognise leave the state alone and return None.
//
// The zero value is invalid; build handlers with NewHandler, FromReducers or
// FromReducer.
type MessageHandler[E, S, M any] struct {
	fns []HandlerFunc[E, S, M]
}

// NewHandler builds a MessageHandler from one or more functions:
//
//	h := tea.NewHandler(fireMissiles, cancelMissiles)
//
// It panics with ErrEmptyHandler when fns is empty.
func NewHandler[E, S, M any](fns ...HandlerFunc[E, S, M]) MessageHandler[E, S, M] {
	if len(fns) == 0 {
		panic(ErrEmptyHandler)
	}
	return MessageHandler[E, S, M]{fns: append([]HandlerFunc[E, S, M](nil), fns...)}
}

// FromReducers builds a MessageHandler holding one HandlerFunc per reducer
// function, each returning None. The environment type cannot be inferred
// and must be given explicitly:
//
//	h := tea.FromReducers[MathEnv](increment, decrement)
//
// It panics with ErrEmptyReducer when fns is empty.
func FromReducers[E, S, M any](fns ...ReducerFunc[S, M]) MessageHandler[E, S, M] {
	if len(fns) == 0 {
		panic(ErrEmptyReducer)
	}
	hs := make([]HandlerFunc[E, S, M], len(fns))
	for i, fn := range fns {
		hs[i] = func(state S, msg M) (S, Command[E, M]) {
			return fn(state, msg), Command[E, M]{}
		}
	}
	return MessageHandler[E, S, M]{fns: hs}
}

// FromReducer lifts a Reducer into a MessageHandler that always returns None.
func FromReducer[E, S, M any](r Reducer[S, M]) MessageHandler[E, S, M] {
	if r.Len() == 0 {
		panic(ErrEmptyReducer)
	}
	return NewHandler(func(state S, msg M) (S, Command[E, M]) {
		return r.Run(state, msg), None[E, M]()
	})
}

// Run executes every function left to right against the progressively
// updated state and batches all returned commands.
func (h MessageHandler[E, S, M]) Run(state S, msg M) (S, Command[E, M]) {
	switch len(h.fns) {
	case 0:
		panic(ErrEmptyHandler)
	case 1:
		return h.fns[0](state, msg)
	}

	cmds := make([]Command[E, M], 0, len(h.fns))
	for _, fn := range h.fns {
		var cmd Command[E, M]
		state, cmd = fn(state, msg)
		cmds = append(cmds, cmd)
	}
	return state, Batch(cmds...)
}

// Merge returns a handler running h's functions followed by those of each of
// others. Merge is associative; there is no identity element.
func (h MessageHandler[E, S, M]) Merge(others ...MessageHandler[E, S, M]) MessageHandler[E, S, M] {
	fns := append([]HandlerFunc[E, S, M](nil), h.fns...)
	for _, o := range others {
		fns = append(fns, o.fns...)
	}
	if len(fns) == 0 {
		panic(ErrEmptyHandler)
	}
	return MessageHandler[E, S, M]{fns: fns}
}

// MergeFunc appends handler functions to h.
func (h MessageHandler[E, S, M]) MergeFunc(fns ...HandlerFunc[E, S, M]) MessageHandler[E, S, M] {
	if len(fns) == 0 {
		return h.Merge()
	}
	return h.Merge(NewHandler(fns...))
}

// MergeReducer appends reducer functions to h.
func (h MessageHandler[E, S, M]) MergeReducer(fns ...ReducerFunc[S, M]) MessageHandler[E, S, M] {
	if len(fns) == 0 {
		return h.Merge()
	}
	return h.Merge(FromReducers[E](fns...))
}

// Len returns the number of functions in h.
func (h MessageHandler[E, S, M]) Len() int {
	return len(h.fns)
}

// Func returns h as a single HandlerFunc.
func (h MessageHandler[E, S, M]) Func() HandlerFunc[E, S, M] {
	return h.Run
}

// Merge composes handlers left to right.
func Merge[E, S, M any](first MessageHandler[E, S, M], rest ...MessageHandler[E, S, M]) MessageHandler[E, S, M] {
	return first.Merge(rest...)
}
