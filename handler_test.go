package tea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderEnv struct{}

func tagHandler(tag string) HandlerFunc[orderEnv, []string, string] {
	return func(state []string, msg string) ([]string, Command[orderEnv, string]) {
		return append(state, tag+msg), None[orderEnv, string]()
	}
}

func TestHandler_MergeRunsLeftToRight(t *testing.T) {
	x := NewHandler(func(state []string, msg string) ([]string, Command[orderEnv, string]) {
		return append(state, "x"+msg), None[orderEnv, string]()
	})
	ab := NewHandler(tagHandler("m-a"), tagHandler("m-b"))

	state, _ := x.Merge(ab).Run(nil, "")
	assert.Equal(t, []string{"x", "m-a", "m-b"}, state)

	state, _ = ab.Merge(x).Run(nil, "")
	assert.Equal(t, []string{"m-a", "m-b", "x"}, state)
}

func TestHandler_MergeIsAssociative(t *testing.T) {
	a := NewHandler(tagHandler("a"))
	b := NewHandler(tagHandler("b"))
	c := NewHandler(tagHandler("c"))

	left, _ := a.Merge(b).Merge(c).Run(nil, "!")
	right, _ := a.Merge(b.Merge(c)).Run(nil, "!")
	flat, _ := Merge(a, b, c).Run(nil, "!")

	assert.Equal(t, []string{"a!", "b!", "c!"}, left)
	assert.Equal(t, left, right)
	assert.Equal(t, left, flat)
}

func TestHandler_BatchesEveryCommand(t *testing.T) {
	h := NewHandler(
		func(state int, _ string) (int, Command[struct{}, string]) { return state + 1, emit("first") },
		func(state int, _ string) (int, Command[struct{}, string]) {
			return state * 10, None[struct{}, string]()
		},
		func(state int, _ string) (int, Command[struct{}, string]) { return state + 2, emit("third") },
	)

	state, cmd := h.Run(0, "go")

	assert.Equal(t, 12, state)
	require.Equal(t, 2, cmd.Len())
	assert.ElementsMatch(t, []string{"first", "third"}, publishTo(t, cmd))
}

func TestHandler_SingleFunctionReturnsItsCommand(t *testing.T) {
	h := NewHandler(func(state int, _ string) (int, Command[struct{}, string]) {
		return state, emit("x", "y")
	})

	_, cmd := h.Run(0, "")
	assert.Equal(t, 1, cmd.Len())
	assert.Equal(t, []string{"x", "y"}, publishTo(t, cmd))
}

func TestHandler_FromReducersAlwaysReturnsNone(t *testing.T) {
	h := mathHandler()

	state, cmd := h.Run(3, multiply(4))

	assert.Equal(t, 12, state)
	assert.True(t, cmd.IsNone())
	assert.Equal(t, 4, h.Len())
}

func TestHandler_FromReducersKeepsEachFunction(t *testing.T) {
	h := FromReducers[mathEnv](incrementReducer, multiplyReducer)
	require.Equal(t, 2, h.Len())

	state, cmd := h.Run(2, increment())
	assert.Equal(t, 3, state)
	assert.True(t, cmd.IsNone())

	assert.PanicsWithValue(t, ErrEmptyReducer, func() {
		FromReducers[mathEnv, int, mathMessage]()
	})
}

func TestHandler_MergeReducerAndFunc(t *testing.T) {
	h := FromReducers[mathEnv](incrementReducer).
		MergeReducer(multiplyReducer).
		MergeFunc(func(state int, msg mathMessage) (int, Command[mathEnv, mathMessage]) {
			return state - 1, None[mathEnv, mathMessage]()
		})

	state, _ := h.Run(2, increment())
	assert.Equal(t, 2, state)
	assert.Equal(t, 3, h.Len())

	fn := h.Func()
	state, _ = fn(2, multiply(3))
	assert.Equal(t, 5, state)
}

func TestHandler_EmptyPanics(t *testing.T) {
	assert.PanicsWithValue(t, ErrEmptyHandler, func() {
		NewHandler[orderEnv, []string, string]()
	})
	assert.PanicsWithValue(t, ErrEmptyHandler, func() {
		var h MessageHandler[orderEnv, []string, string]
		h.Run(nil, "")
	})
	assert.PanicsWithValue(t, ErrEmptyHandler, func() {
		var a, b MessageHandler[orderEnv, []string, string]
		a.Merge(b)
	})
}

func TestHandler_UnknownMessageLeavesStateAlone(t *testing.T) {
	state, cmd := stringHandler().Run([]string{"a"}, stringMessage{op: opNoop})

	assert.Equal(t, []string{"a"}, state)
	assert.True(t, cmd.IsNone())
}
