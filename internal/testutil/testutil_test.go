package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDGenerator_SingleIDRepeats(t *testing.T) {
	gen := NewFixedIDGenerator("program-1")

	assert.Equal(t, "program-1", gen.Generate())
	assert.Equal(t, "program-1", gen.Generate())
}

func TestFixedIDGenerator_EmptyDefault(t *testing.T) {
	gen := NewFixedIDGenerator()
	assert.Equal(t, "test-program-default", gen.Generate())
}

func TestFixedIDGenerator_SequenceThenPanics(t *testing.T) {
	gen := NewFixedIDGenerator("a", "b")

	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestRecorder_WaitFor(t *testing.T) {
	rec := NewRecorder[int]()

	go func() {
		for i := 1; i <= 3; i++ {
			rec.Record(i)
		}
	}()

	require.True(t, rec.WaitFor(3, time.Second))
	assert.Equal(t, []int{1, 2, 3}, rec.Values())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last)
}

func TestRecorder_WaitForTimesOut(t *testing.T) {
	rec := NewRecorder[string]()
	rec.Record("only")

	assert.False(t, rec.WaitFor(2, 20*time.Millisecond))
	assert.Equal(t, 1, rec.Len())
}

func TestRecordingEnv_ConcurrentUpdates(t *testing.T) {
	env := NewRecordingEnv()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.UpdateLastAppend("x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, env.Calls())
	assert.Equal(t, "x", env.LastAppend())
}
