package tea

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tea/internal/testutil"
)

// testMessage is the sealed supermessage of the test application.
type testMessage interface {
	isTestMessage()
}

type mathOp int

const (
	opIncrement mathOp = iota
	opDecrement
	opMultiply
	opDivide
)

type mathMessage struct {
	op mathOp
	n  int
}

func (mathMessage) isTestMessage() {}

func increment() mathMessage     { return mathMessage{op: opIncrement} }
func decrement() mathMessage     { return mathMessage{op: opDecrement} }
func multiply(n int) mathMessage { return mathMessage{op: opMultiply, n: n} }
func divide(n int) mathMessage   { return mathMessage{op: opDivide, n: n} }

func incrementReducer(state int, msg mathMessage) int {
	if msg.op == opIncrement {
		return state + 1
	}
	return state
}

func decrementReducer(state int, msg mathMessage) int {
	if msg.op == opDecrement {
		return state - 1
	}
	return state
}

func multiplyReducer(state int, msg mathMessage) int {
	if msg.op == opMultiply {
		return state * msg.n
	}
	return state
}

func divideReducer(state int, msg mathMessage) int {
	if msg.op == opDivide && msg.n != 0 {
		return state / msg.n
	}
	return state
}

type mathEnv interface{}

func mathHandler() MessageHandler[mathEnv, int, mathMessage] {
	return FromReducers[mathEnv](incrementReducer, decrementReducer, multiplyReducer, divideReducer)
}

type stringOp int

const (
	opNoop stringOp = iota
	opAppend
	opAugment
)

type stringMessage struct {
	op    stringOp
	value string
}

func (stringMessage) isTestMessage() {}

type stringEnv interface {
	UpdateLastAppend(value string)
}

func appendHandler(state []string, msg stringMessage) ([]string, Command[stringEnv, stringMessage]) {
	switch msg.op {
	case opAppend:
		value := msg.value
		return append(slices.Clip(state), value), NewCommand(func(env stringEnv, publish func(stringMessage)) {
			env.UpdateLastAppend(value)
			publish(stringMessage{op: opNoop})
		})
	case opAugment:
		out := make([]string, len(state))
		for i, s := range state {
			out[i] = s + msg.value
		}
		return out, None[stringEnv, stringMessage]()
	default:
		return state, None[stringEnv, stringMessage]()
	}
}

func stringHandler() MessageHandler[stringEnv, []string, stringMessage] {
	return NewHandler(appendHandler)
}

type testState struct {
	Strings []string
	Number  int
}

// testEnv satisfies both slice environments.
type testEnv interface {
	stringEnv
}

var (
	numberLens = NewLens(
		func(s testState) int { return s.Number },
		func(s testState, n int) testState { s.Number = n; return s },
	)
	stringsLens = NewLens(
		func(s testState) []string { return s.Strings },
		func(s testState, v []string) testState { s.Strings = v; return s },
	)
)

func testHandler() MessageHandler[testEnv, testState, testMessage] {
	math := Lift(mathHandler(), numberLens, TypePrism[mathMessage, testMessage](),
		func(env testEnv) mathEnv { return env })
	strs := Lift(stringHandler(), stringsLens, TypePrism[stringMessage, testMessage](),
		func(env testEnv) stringEnv { return env })
	return math.Merge(strs)
}

// newTestProgram starts a program and closes it when the test ends.
func newTestProgram[E, S, M any](t *testing.T, initial S, env E, h MessageHandler[E, S, M], opts ...Option) *Program[E, S, M] {
	t.Helper()
	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator("test-program"))}, opts...)
	p, err := New(initial, env, h, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func settle(t *testing.T, s interface{ Settle(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))
}
