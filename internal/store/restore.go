package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/tea/internal/canon"
)

// ErrSnapshotCorrupt is returned when a stored snapshot does not match its
// own hash.
var ErrSnapshotCorrupt = errors.New("store: snapshot does not match its hash")

// Restored is the state of a run rebuilt from the store.
type Restored[S any] struct {
	Run   string
	State S

	// Seq is the number of journaled messages State reflects. A program
	// continuing the run journals from Seq+1.
	Seq int64

	// SnapshotSeq is the seq of the snapshot the state was rebuilt from.
	// Messages SnapshotSeq+1 through Seq were folded on top of it.
	SnapshotSeq int64
}

// Restore rebuilds the latest state of run: it decodes the newest snapshot,
// checks it against its hash, then folds the journal entries recorded after
// it. Snapshots are usually written every few messages, so the journal tail
// carries the rest.
//
// Returns ErrNotFound if the run has no snapshots, ErrSnapshotCorrupt if the
// snapshot was altered, and ErrJournalGap if the tail is missing a message.
func Restore[S, M any](
	ctx context.Context,
	s *Store,
	run string,
	decode func(kind string, payload []byte) (M, error),
	fold func(S, M) S,
) (Restored[S], error) {
	snap, err := s.LatestSnapshot(ctx, run)
	if err != nil {
		return Restored[S]{}, fmt.Errorf("restore %s: %w", run, err)
	}

	hash, err := canon.StateHashJSON(snap.State)
	if err != nil {
		return Restored[S]{}, fmt.Errorf("restore %s: %w", run, err)
	}
	if hash != snap.Hash {
		return Restored[S]{}, fmt.Errorf("restore %s: seq %d: %w", run, snap.Seq, ErrSnapshotCorrupt)
	}

	var state S
	if err := json.Unmarshal(snap.State, &state); err != nil {
		return Restored[S]{}, fmt.Errorf("restore %s: decode state: %w", run, err)
	}

	tail, err := s.ReadMessagesAfter(ctx, run, snap.Seq)
	if err != nil {
		return Restored[S]{}, fmt.Errorf("restore %s: %w", run, err)
	}

	seq := snap.Seq
	for _, e := range tail {
		if e.Seq != seq+1 {
			return Restored[S]{}, fmt.Errorf("restore %s: %w: expected seq %d, found %d", run, ErrJournalGap, seq+1, e.Seq)
		}
		msg, err := decode(e.Kind, e.Payload)
		if err != nil {
			return Restored[S]{}, fmt.Errorf("restore %s: decode seq %d: %w", run, e.Seq, err)
		}
		state = fold(state, msg)
		seq = e.Seq
	}

	return Restored[S]{Run: run, State: state, Seq: seq, SnapshotSeq: snap.Seq}, nil
}
