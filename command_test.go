package tea

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tea/internal/testutil"
)

func publishTo(t *testing.T, cmd Command[struct{}, string]) []string {
	t.Helper()

	rec := testutil.NewRecorder[string]()
	var wg sync.WaitGroup
	wrapped := make([]Command[struct{}, string], 0, cmd.Len())
	for _, effect := range cmd.effects {
		wg.Add(1)
		wrapped = append(wrapped, NewCommand(func(env struct{}, publish func(string)) {
			defer wg.Done()
			effect(env, publish)
		}))
	}
	Batch(wrapped...).Run(struct{}{}, rec.Record)
	wg.Wait()
	return rec.Values()
}

func emit(values ...string) Command[struct{}, string] {
	return NewCommand(func(_ struct{}, publish func(string)) {
		for _, v := range values {
			publish(v)
		}
	})
}

func TestCommand_NoneNeverPublishes(t *testing.T) {
	cmd := None[struct{}, string]()

	called := false
	cmd.Run(struct{}{}, func(string) { called = true })

	assert.False(t, called)
	assert.True(t, cmd.IsNone())
	assert.Equal(t, 0, cmd.Len())
}

func TestCommand_ZeroValueIsNone(t *testing.T) {
	var cmd Command[struct{}, string]
	assert.True(t, cmd.IsNone())
	assert.True(t, NewCommand[struct{}, string](nil).IsNone())
}

func TestBatch_DropsNoneMembers(t *testing.T) {
	none := None[struct{}, string]()

	assert.True(t, Batch[struct{}, string]().IsNone())
	assert.True(t, Batch(none, none).IsNone())
	assert.Equal(t, 1, Batch(none, emit("a"), none).Len())
	assert.Equal(t, 3, Batch(emit("a"), Batch(emit("b"), emit("c"))).Len())
}

func TestBatch_EveryMemberPublishesExactlyOnce(t *testing.T) {
	// No ordering among members, only that each message arrives once.
	cmd := Batch(emit("c1"), emit("c2"))

	got := publishTo(t, cmd)

	assert.ElementsMatch(t, []string{"c1", "c2"}, got)
}

func TestBatch_SingleMemberRunsInline(t *testing.T) {
	var got []string
	emit("only").Run(struct{}{}, func(v string) { got = append(got, v) })

	// Run returned, so the inline effect has already published.
	assert.Equal(t, []string{"only"}, got)
}

func TestCommand_Combine(t *testing.T) {
	cmd := emit("a").Combine(emit("b")).Combine(None[struct{}, string]())

	require.Equal(t, 2, cmd.Len())
	assert.ElementsMatch(t, []string{"a", "b"}, publishTo(t, cmd))
}

func TestCommand_BatchMembersRunIndependently(t *testing.T) {
	release := make(chan struct{})
	slow := NewCommand(func(_ struct{}, publish func(string)) {
		<-release
		publish("slow")
	})

	rec := testutil.NewRecorder[string]()
	Batch(slow, emit("fast")).Run(struct{}{}, rec.Record)

	require.True(t, rec.WaitFor(1, time.Second))
	assert.Equal(t, []string{"fast"}, rec.Values())

	close(release)
	require.True(t, rec.WaitFor(2, time.Second))
	assert.ElementsMatch(t, []string{"fast", "slow"}, rec.Values())
}

func TestCommand_RunOnPool(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	rec := testutil.NewRecorder[string]()
	Batch(emit("a"), emit("b"), emit("c")).RunOn(pool, struct{}{}, rec.Record)

	require.True(t, rec.WaitFor(3, time.Second))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, rec.Values())
}

type greeter struct{ prefix string }

func TestMapCommand_NarrowsEnvAndWidensMessages(t *testing.T) {
	inner := NewCommand(func(env greeter, publish func(string)) {
		publish(env.prefix + "world")
	})

	type outerEnv struct{ g greeter }
	type outerMsg struct{ text string }

	outer := MapCommand(inner,
		func(env outerEnv) greeter { return env.g },
		func(s string) outerMsg { return outerMsg{text: s} },
	)

	var got []outerMsg
	outer.Run(outerEnv{g: greeter{prefix: "hello "}}, func(m outerMsg) { got = append(got, m) })

	assert.Equal(t, []outerMsg{{text: "hello world"}}, got)
}

func TestMapCommand_NoneStaysNone(t *testing.T) {
	out := MapCommand(None[greeter, string](),
		func(struct{}) greeter { return greeter{} },
		func(s string) int { return len(s) },
	)
	assert.True(t, out.IsNone())
}
