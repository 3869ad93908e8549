package demo

import (
	"slices"

	"github.com/roach88/tea"
)

// MathEnv is the environment of the math slice. It needs no services.
type MathEnv interface{}

// StringEnv is the environment of the strings slice.
type StringEnv interface {
	UpdateLastAppend(value string)
}

// Env is the environment of the application.
type Env interface {
	MathEnv
	StringEnv
}

// State is the application state.
type State struct {
	Strings []string `json:"strings"`
	Number  int      `json:"number"`
}

var (
	numberLens = tea.NewLens(
		func(s State) int { return s.Number },
		func(s State, n int) State { s.Number = n; return s },
	)
	stringsLens = tea.NewLens(
		func(s State) []string { return s.Strings },
		func(s State, v []string) State { s.Strings = v; return s },
	)
)

func increment(n int, msg MathMessage) int {
	if m, ok := msg.(Increment); ok {
		return n + m.Amount
	}
	return n
}

func decrement(n int, msg MathMessage) int {
	if m, ok := msg.(Decrement); ok {
		return n - m.Amount
	}
	return n
}

func multiply(n int, msg MathMessage) int {
	if m, ok := msg.(Multiply); ok {
		return n * m.Factor
	}
	return n
}

func divide(n int, msg MathMessage) int {
	if m, ok := msg.(Divide); ok && m.Factor != 0 {
		return n / m.Factor
	}
	return n
}

// MathHandler handles the math slice.
func MathHandler() tea.MessageHandler[MathEnv, int, MathMessage] {
	return tea.FromReducers[MathEnv](increment, decrement, multiply, divide)
}

// updateLastAppend records value in the environment, then publishes Noop.
func updateLastAppend(value string) tea.Command[StringEnv, StringMessage] {
	return tea.NewCommand(func(env StringEnv, publish func(StringMessage)) {
		env.UpdateLastAppend(value)
		publish(Noop{})
	})
}

func handleStrings(list []string, msg StringMessage) ([]string, tea.Command[StringEnv, StringMessage]) {
	switch m := msg.(type) {
	case Append:
		// Clip so earlier states sharing the backing array stay intact.
		return append(slices.Clip(list), m.Value), updateLastAppend(m.Value)
	case Augment:
		out := make([]string, len(list))
		for i, s := range list {
			out[i] = s + m.Suffix
		}
		return out, tea.None[StringEnv, StringMessage]()
	default:
		return list, tea.None[StringEnv, StringMessage]()
	}
}

// StringHandler handles the strings slice.
func StringHandler() tea.MessageHandler[StringEnv, []string, StringMessage] {
	return tea.NewHandler(handleStrings)
}

// Handler returns the application handler: both slices lifted into State.
func Handler() tea.MessageHandler[Env, State, Message] {
	math := tea.Lift(MathHandler(), numberLens, tea.TypePrism[MathMessage, Message](),
		func(env Env) MathEnv { return env })
	strs := tea.Lift(StringHandler(), stringsLens, tea.TypePrism[StringMessage, Message](),
		func(env Env) StringEnv { return env })
	return tea.Merge(math, strs)
}

// Fold applies msg to state and discards the command. Replay uses it to
// rebuild a state from a journal.
func Fold(state State, msg Message) State {
	next, _ := handler.Run(state, msg)
	return next
}

var handler = Handler()
