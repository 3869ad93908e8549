package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/tea/internal/canon"
	"github.com/roach88/tea/middleware"
)

// timeLayout is used for every timestamp column. Timestamps are
// informational only; ordering always uses seq.
const timeLayout = time.RFC3339Nano

// Run describes one program run.
type Run struct {
	ID        string
	Label     string
	StartedAt time.Time
}

// BeginRun records a run. Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Label, run.StartedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// AppendMessage inserts a journal entry. The payload is stored as given and
// hashed in canonical form, so equal messages hash equally however they
// were encoded. Duplicate (run, seq) pairs are silently ignored.
//
// Implements middleware.MessageJournal.
func (s *Store) AppendMessage(ctx context.Context, e middleware.Entry) error {
	hash, err := canon.MessageHash(e.Kind, e.Payload)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (run_id, seq, kind, payload, hash, at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, e.Run, e.Seq, e.Kind, string(e.Payload), hash, e.At.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// WriteSnapshot inserts a snapshot. Duplicate (run, seq) pairs are silently
// ignored.
//
// Implements middleware.SnapshotWriter.
func (s *Store) WriteSnapshot(ctx context.Context, snap middleware.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, seq, hash, state, at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, snap.Run, snap.Seq, snap.Hash, string(snap.State), snap.At.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
