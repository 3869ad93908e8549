package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/tea/internal/canon"
)

// ReplayResult reports the outcome of replaying a run.
type ReplayResult struct {
	Run string `json:"run"`

	// Messages is the number of journal entries folded.
	Messages int `json:"messages"`

	// Seq is the seq of the snapshot compared against.
	Seq int64 `json:"seq"`

	Expected string `json:"expected_hash"`
	Actual   string `json:"actual_hash"`
	Match    bool   `json:"match"`

	// State is the refolded state as JSON.
	State json.RawMessage `json:"state"`
}

// ErrJournalGap is returned when the journal is missing a message between
// the initial and the compared snapshot.
var ErrJournalGap = errors.New("store: journal has a gap")

// Replay rebuilds the final state of a run from its journal and checks it
// against the latest snapshot.
//
// The initial state is decoded from the Seq 0 snapshot. Each journal entry
// up to the latest snapshot's seq is decoded and folded with fold, which
// must be the pure state transition of the program (commands are ignored:
// the messages they published are in the journal themselves).
func Replay[S, M any](
	ctx context.Context,
	s *Store,
	run string,
	decode func(kind string, payload []byte) (M, error),
	fold func(S, M) S,
) (ReplayResult, error) {
	initial, err := s.Snapshot(ctx, run, 0)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: initial snapshot: %w", run, err)
	}
	latest, err := s.LatestSnapshot(ctx, run)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: latest snapshot: %w", run, err)
	}

	var state S
	if err := json.Unmarshal(initial.State, &state); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: decode initial state: %w", run, err)
	}

	entries, err := s.ReadMessagesUpTo(ctx, run, latest.Seq)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", run, err)
	}
	if int64(len(entries)) != latest.Seq {
		return ReplayResult{}, fmt.Errorf("replay %s: %w: %d messages for seq %d", run, ErrJournalGap, len(entries), latest.Seq)
	}

	for _, e := range entries {
		msg, err := decode(e.Kind, e.Payload)
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay %s: decode seq %d: %w", run, e.Seq, err)
		}
		state = fold(state, msg)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: encode state: %w", run, err)
	}
	actual, err := canon.StateHashJSON(data)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", run, err)
	}

	return ReplayResult{
		Run:      run,
		Messages: len(entries),
		Seq:      latest.Seq,
		Expected: latest.Hash,
		Actual:   actual,
		Match:    actual == latest.Hash,
		State:    data,
	}, nil
}
