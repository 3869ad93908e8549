package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tea/internal/canon"
	"github.com/roach88/tea/middleware"
)

func TestAppendMessage_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", 1, "increment", `{}`)))
	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", 2, "multiply", `{"n":3}`)))
	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-2", 1, "increment", `{}`)))

	entries, err := s.ReadMessages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, createTestEntry("run-1", 1, "increment", `{}`), entries[0])
	assert.Equal(t, "multiply", entries[1].Kind)
	assert.Equal(t, `{"n":3}`, string(entries[1].Payload))
}

func TestAppendMessage_StoresCanonicalHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", 1, "append", `{ "v" : "x" }`)))

	var hash string
	require.NoError(t, s.DB().QueryRow("SELECT hash FROM messages WHERE run_id = 'run-1'").Scan(&hash))

	want, err := canon.MessageHash("append", []byte(`{"v":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestAppendMessage_InvalidPayload(t *testing.T) {
	s := createTestStore(t)

	err := s.AppendMessage(context.Background(), createTestEntry("run-1", 1, "bad", `{`))
	assert.Error(t, err)
}

func TestAppendMessage_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", 1, "first", `{}`)))
	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", 1, "second", `{}`)))

	entries, err := s.ReadMessages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Kind)
}

func TestWriteSnapshot_LatestAndBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, seq := range []int64{0, 2, 1} {
		require.NoError(t, s.WriteSnapshot(ctx, middleware.Snapshot{
			Run:   "run-1",
			Seq:   seq,
			Hash:  "h" + string(rune('0'+seq)),
			State: []byte(`{"number":1}`),
			At:    testTime,
		}))
	}

	latest, err := s.LatestSnapshot(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Seq)
	assert.Equal(t, "h2", latest.Hash)
	assert.Equal(t, testTime, latest.At)

	first, err := s.Snapshot(ctx, "run-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "h0", first.Hash)

	_, err = s.Snapshot(ctx, "run-1", 9)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LatestSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBeginRun_ListAndLatest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.BeginRun(ctx, Run{ID: "run-a", Label: "first", StartedAt: testTime}))
	require.NoError(t, s.BeginRun(ctx, Run{ID: "run-b", Label: "second", StartedAt: testTime.Add(time.Minute)}))
	require.NoError(t, s.BeginRun(ctx, Run{ID: "run-a", Label: "ignored", StartedAt: testTime}))
	require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-a", 1, "increment", `{}`)))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "first", runs[0].Label)
	assert.Equal(t, int64(1), runs[0].Messages)
	assert.Equal(t, int64(0), runs[1].Messages)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-b", latest)
}

func TestListRuns_SameStartTimeOrdersByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-c", "run-a", "run-b"} {
		require.NoError(t, s.BeginRun(ctx, Run{ID: id, StartedAt: testTime}))
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, ids)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-c", latest)
}

func TestReadMessages_UpToAndByKind(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	kinds := []string{"increment", "append", "increment", "augment"}
	for i, k := range kinds {
		require.NoError(t, s.AppendMessage(ctx, createTestEntry("run-1", int64(i+1), k, `{}`)))
	}

	upTo, err := s.ReadMessagesUpTo(ctx, "run-1", 2)
	require.NoError(t, err)
	assert.Len(t, upTo, 2)

	incs, err := s.ReadMessagesByKind(ctx, "run-1", "increment")
	require.NoError(t, err)
	require.Len(t, incs, 2)
	assert.Equal(t, []int64{1, 3}, []int64{incs[0].Seq, incs[1].Seq})

	none, err := s.ReadMessages(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
