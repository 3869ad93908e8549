package tea

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tea/internal/testutil"
)

func TestNotifier_InitialThenBroadcasts(t *testing.T) {
	n := newNotifier[string]()
	rec := testutil.NewRecorder[string]()

	n.add(rec.Record, "v0", 0)
	n.publish("v1", 1)
	n.publish("v2", 2)
	n.close()

	assert.Equal(t, []string{"v0", "v1", "v2"}, rec.Values())
}

func TestNotifier_SkipsVersionsCoveredByInitialDelivery(t *testing.T) {
	n := newNotifier[int]()
	rec := testutil.NewRecorder[int]()

	// Broadcast for version 1 queued before the subscriber joined at
	// version 1 must not be delivered twice.
	n.publish(1, 1)
	n.add(rec.Record, 1, 1)
	n.publish(2, 2)
	n.close()

	assert.Equal(t, []int{1, 2}, rec.Values())
}

func TestNotifier_UnsubscribeDropsQueued(t *testing.T) {
	n := newNotifier[int]()
	block := make(chan struct{})
	first := testutil.NewRecorder[int]()
	second := testutil.NewRecorder[int]()

	n.add(func(v int) {
		first.Record(v)
		<-block
	}, 0, 0)
	sub := n.add(second.Record, 0, 0)

	require.True(t, first.WaitFor(1, time.Second))
	n.publish(1, 1)
	sub.Unsubscribe()
	close(block)
	n.close()

	// second got its initial delivery queued but was cancelled before the
	// notifier reached it.
	assert.Empty(t, second.Values())
	assert.Equal(t, []int{0, 1}, first.Values())
	assert.Equal(t, 1, n.count())
}

func TestNotifier_RegistrationOrder(t *testing.T) {
	n := newNotifier[int]()
	var order []string

	n.add(func(int) { order = append(order, "a") }, 0, 0)
	n.add(func(int) { order = append(order, "b") }, 0, 0)
	n.publish(1, 1)
	n.close()

	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}
