package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tea/middleware"
)

// RunInfo summarizes a stored run.
type RunInfo struct {
	Run
	Messages  int64
	Snapshots int64
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.started_at,
			(SELECT COUNT(*) FROM messages m WHERE m.run_id = r.id),
			(SELECT COUNT(*) FROM snapshots n WHERE n.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			started string
		)
		if err := rows.Scan(&info.ID, &info.Label, &started, &info.Messages, &info.Snapshots); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if info.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the ID of the most recently started run.
// Returns ErrNotFound if the store holds no runs.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// ReadMessages returns the journal of a run in seq order.
func (s *Store) ReadMessages(ctx context.Context, run string) ([]middleware.Entry, error) {
	return s.readMessages(ctx, `
		SELECT run_id, seq, kind, payload, at FROM messages
		WHERE run_id = ?
		ORDER BY seq ASC
	`, run)
}

// ReadMessagesUpTo returns the journal entries of a run with seq <= maxSeq.
func (s *Store) ReadMessagesUpTo(ctx context.Context, run string, maxSeq int64) ([]middleware.Entry, error) {
	return s.readMessages(ctx, `
		SELECT run_id, seq, kind, payload, at FROM messages
		WHERE run_id = ? AND seq <= ?
		ORDER BY seq ASC
	`, run, maxSeq)
}

// ReadMessagesAfter returns the journal entries of a run with seq > afterSeq.
func (s *Store) ReadMessagesAfter(ctx context.Context, run string, afterSeq int64) ([]middleware.Entry, error) {
	return s.readMessages(ctx, `
		SELECT run_id, seq, kind, payload, at FROM messages
		WHERE run_id = ? AND seq > ?
		ORDER BY seq ASC
	`, run, afterSeq)
}

// ReadMessagesByKind returns the journal entries of one kind in seq order.
func (s *Store) ReadMessagesByKind(ctx context.Context, run, kind string) ([]middleware.Entry, error) {
	return s.readMessages(ctx, `
		SELECT run_id, seq, kind, payload, at FROM messages
		WHERE run_id = ? AND kind = ?
		ORDER BY seq ASC
	`, run, kind)
}

func (s *Store) readMessages(ctx context.Context, query string, args ...any) ([]middleware.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	defer rows.Close()

	var entries []middleware.Entry
	for rows.Next() {
		var (
			e       middleware.Entry
			payload string
			at      string
		)
		if err := rows.Scan(&e.Run, &e.Seq, &e.Kind, &payload, &at); err != nil {
			return nil, fmt.Errorf("read messages: scan: %w", err)
		}
		e.Payload = []byte(payload)
		if e.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("read messages: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return entries, nil
}

// Snapshot returns the snapshot of a run at seq.
// Returns ErrNotFound if there is none.
func (s *Store) Snapshot(ctx context.Context, run string, seq int64) (middleware.Snapshot, error) {
	return s.readSnapshot(ctx, `
		SELECT run_id, seq, hash, state, at FROM snapshots
		WHERE run_id = ? AND seq = ?
	`, run, seq)
}

// LatestSnapshot returns the snapshot of a run with the highest seq.
// Returns ErrNotFound if the run has no snapshots.
func (s *Store) LatestSnapshot(ctx context.Context, run string) (middleware.Snapshot, error) {
	return s.readSnapshot(ctx, `
		SELECT run_id, seq, hash, state, at FROM snapshots
		WHERE run_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, run)
}

func (s *Store) readSnapshot(ctx context.Context, query string, args ...any) (middleware.Snapshot, error) {
	var (
		snap  middleware.Snapshot
		state string
		at    string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&snap.Run, &snap.Seq, &snap.Hash, &state, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return middleware.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return middleware.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	snap.State = []byte(state)
	if snap.At, err = parseTime(at); err != nil {
		return middleware.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
