package tea

// Effect is the body of a Command. It performs work using the services in
// env and may call publish zero or more times to send messages back to the
// program.
//
// publish is safe to call from any goroutine and after the effect returns.
type Effect[E, M any] func(env E, publish func(M))

// Command is a deferred unit of work created by a handler and consumed once
// by the program's effect executor.
//
// Commands coordinate between the program and the outside world. They should
// depend on services in the environment to do the actual work, translating
// failures into messages:
//
//	load := tea.NewCommand(func(env Env, publish func(Msg)) {
//		items, err := env.Catalog().List()
//		if err != nil {
//			publish(LoadFailed{Err: err})
//			return
//		}
//		publish(Loaded{Items: items})
//	})
//
// The zero value is the None command.
type Command[E, M any] struct {
	effects []Effect[E, M]
}

// NewCommand wraps a single effect. A nil effect yields None.
func NewCommand[E, M any](effect Effect[E, M]) Command[E, M] {
	if effect == nil {
		return Command[E, M]{}
	}
	return Command[E, M]{effects: []Effect[E, M]{effect}}
}

// None returns a command with no effect. Running it never calls publish.
func None[E, M any]() Command[E, M] {
	return Command[E, M]{}
}

// Batch composes commands into one. On run, each member executes
// independently; there is no ordering among members and their publish calls
// may interleave arbitrarily.
//
// None members are dropped. A batch of one command is that command.
func Batch[E, M any](cmds ...Command[E, M]) Command[E, M] {
	n := 0
	for _, c := range cmds {
		n += len(c.effects)
	}
	if n == 0 {
		return Command[E, M]{}
	}

	effects := make([]Effect[E, M], 0, n)
	for _, c := range cmds {
		effects = append(effects, c.effects...)
	}
	return Command[E, M]{effects: effects}
}

// Combine returns Batch(c, other).
func (c Command[E, M]) Combine(other Command[E, M]) Command[E, M] {
	return Batch(c, other)
}

// IsNone reports whether running c has no effect.
func (c Command[E, M]) IsNone() bool {
	return len(c.effects) == 0
}

// Len returns the number of independent effects in c.
func (c Command[E, M]) Len() int {
	return len(c.effects)
}

// Run executes c. A single effect runs on the calling goroutine; each member
// of a batch runs on its own goroutine. Run does not wait for batch members.
func (c Command[E, M]) Run(env E, publish func(M)) {
	switch len(c.effects) {
	case 0:
		return
	case 1:
		c.effects[0](env, publish)
	default:
		c.RunOn(GoExecutor{}, env, publish)
	}
}

// RunOn submits every effect of c to exec.
func (c Command[E, M]) RunOn(exec Executor, env E, publish func(M)) {
	for _, effect := range c.effects {
		exec.Go(func() {
			effect(env, publish)
		})
	}
}

// MapCommand re-expresses a command over (E, M) as a command over (SE, SM).
//
// narrowEnv extracts the sub-environment from the enclosing one; widen turns
// each published M into an SM before it reaches the enclosing publish. Both
// are expected to be total; a failure inside them is a ConfigError panic.
func MapCommand[SE, SM, E, M any](c Command[E, M], narrowEnv func(SE) E, widen func(M) SM) Command[SE, SM] {
	if c.IsNone() {
		return Command[SE, SM]{}
	}

	effects := make([]Effect[SE, SM], len(c.effects))
	for i, effect := range c.effects {
		effects[i] = func(env SE, publish func(SM)) {
			effect(narrowEnv(env), func(m M) {
				publish(widen(m))
			})
		}
	}
	return Command[SE, SM]{effects: effects}
}
