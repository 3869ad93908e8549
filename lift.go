package tea

// Lens identifies a substate V within a state S with an explicit get/set
// pair. Set returns the updated S and must leave everything outside the
// focused V untouched.
type Lens[S, V any] struct {
	Get func(S) V
	Set func(S, V) S
}

// NewLens builds a Lens from a getter and a setter.
//
//	number := tea.NewLens(
//		func(s State) int { return s.Number },
//		func(s State, n int) State { s.Number = n; return s },
//	)
func NewLens[S, V any](get func(S) V, set func(S, V) S) Lens[S, V] {
	return Lens[S, V]{Get: get, Set: set}
}

// Identity returns the lens focusing on the whole state.
func Identity[S any]() Lens[S, S] {
	return Lens[S, S]{
		Get: func(s S) S { return s },
		Set: func(_ S, v S) S { return v },
	}
}

// ComposeLens focuses outer then inner.
func ComposeLens[S, V, W any](outer Lens[S, V], inner Lens[V, W]) Lens[S, W] {
	return Lens[S, W]{
		Get: func(s S) W { return inner.Get(outer.Get(s)) },
		Set: func(s S, w W) S { return outer.Set(s, inner.Set(outer.Get(s), w)) },
	}
}

// Prism relates a submessage type M to an enclosing message type SM.
// Narrow reports ok=false for messages that belong elsewhere; Widen must be
// total over M.
type Prism[M, SM any] struct {
	Narrow func(SM) (M, bool)
	Widen  func(M) SM
}

// NewPrism builds a Prism from an explicit narrowing/widening pair.
func NewPrism[M, SM any](narrow func(SM) (M, bool), widen func(M) SM) Prism[M, SM] {
	return Prism[M, SM]{Narrow: narrow, Widen: widen}
}

// TypePrism builds a Prism for the common case where SM is a sealed
// interface implemented by M. Narrowing is a type assertion returning
// ok=false on mismatch. Widening panics with a ConfigError if M does not
// implement SM.
func TypePrism[M, SM any]() Prism[M, SM] {
	return Prism[M, SM]{
		Narrow: func(sm SM) (M, bool) {
			m, ok := any(sm).(M)
			return m, ok
		},
		Widen: func(m M) SM {
			sm, ok := any(m).(SM)
			if !ok {
				configPanic[SM]("widen message", m)
			}
			return sm
		},
	}
}

// EnvAs returns an environment narrowing that asserts the enclosing
// environment SE to E. A mismatch panics with a ConfigError when the
// command runs.
//
// When SE is an interface embedding E, prefer a plain conversion:
//
//	func(env AppEnv) MathEnv { return env }
func EnvAs[SE, E any]() func(SE) E {
	return func(env SE) E {
		e, ok := any(env).(E)
		if !ok {
			configPanic[E]("narrow environment", env)
		}
		return e
	}
}

// Lift re-expresses a handler over (E, S, M) as a handler over
// (SE, SS, SM).
//
// For every incoming SM, the lifted handler narrows it with prism. Messages
// that do not narrow leave the state unchanged and return None; this is the
// routine case for messages owned by sibling handlers. Messages that narrow
// run h on lens.Get(state), the result is written back with lens.Set, and
// the returned command is re-targeted to SE/SM with narrowEnv and
// prism.Widen.
func Lift[SE, SS, SM, E, S, M any](
	h MessageHandler[E, S, M],
	lens Lens[SS, S],
	prism Prism[M, SM],
	narrowEnv func(SE) E,
) MessageHandler[SE, SS, SM] {
	if h.Len() == 0 {
		panic(ErrEmptyHandler)
	}

	return NewHandler(func(state SS, msg SM) (SS, Command[SE, SM]) {
		m, ok := prism.Narrow(msg)
		if !ok {
			return state, None[SE, SM]()
		}

		sub, cmd := h.Run(lens.Get(state), m)
		return lens.Set(state, sub), MapCommand(cmd, narrowEnv, prism.Widen)
	})
}

// Focus lifts a handler over a substate while keeping the environment and
// message types.
func Focus[E, SS, S, M any](h MessageHandler[E, S, M], lens Lens[SS, S]) MessageHandler[E, SS, M] {
	if h.Len() == 0 {
		panic(ErrEmptyHandler)
	}

	return NewHandler(func(state SS, msg M) (SS, Command[E, M]) {
		sub, cmd := h.Run(lens.Get(state), msg)
		return lens.Set(state, sub), cmd
	})
}
