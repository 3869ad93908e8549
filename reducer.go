package tea

// ReducerFunc is a pure state transition for one message. It must not
// perform side effects.
//
// State is passed and returned by value. Reducers over states holding maps
// or slices should copy before writing so earlier snapshots stay intact.
type ReducerFunc[S, M any] func(state S, msg M) S

// Reducer is an ordered, immutable list of ReducerFuncs.
type Reducer[S, M any] struct {
	fns []ReducerFunc[S, M]
}

// NewReducer builds a Reducer from one or more functions. It panics with
// ErrEmptyReducer when fns is empty.
func NewReducer[S, M any](fns ...ReducerFunc[S, M]) Reducer[S, M] {
	if len(fns) == 0 {
		panic(ErrEmptyReducer)
	}
	return Reducer[S, M]{fns: append([]ReducerFunc[S, M](nil), fns...)}
}

// Run applies every function in order, each seeing the state produced by
// the one before it.
func (r Reducer[S, M]) Run(state S, msg M) S {
	if len(r.fns) == 0 {
		panic(ErrEmptyReducer)
	}
	for _, fn := range r.fns {
		state = fn(state, msg)
	}
	return state
}

// Merge returns a Reducer running r's functions followed by those of each
// of others, in argument order.
func (r Reducer[S, M]) Merge(others ...Reducer[S, M]) Reducer[S, M] {
	fns := append([]ReducerFunc[S, M](nil), r.fns...)
	for _, o := range others {
		fns = append(fns, o.fns...)
	}
	return Reducer[S, M]{fns: fns}
}

// Len returns the number of functions in r.
func (r Reducer[S, M]) Len() int {
	return len(r.fns)
}

// Func returns r as a single ReducerFunc.
func (r Reducer[S, M]) Func() ReducerFunc[S, M] {
	return r.Run
}

// CombineReducers returns a reducer running a then b.
func CombineReducers[S, M any](a, b Reducer[S, M]) Reducer[S, M] {
	return a.Merge(b)
}
