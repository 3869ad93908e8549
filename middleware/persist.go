package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/tea"
	"github.com/roach88/tea/internal/canon"
)

// Snapshot is a serialized state together with its canonical hash.
type Snapshot struct {
	Run string

	// Seq is the number of messages the state reflects. The snapshot
	// taken when the middleware is installed has Seq PersistConfig.Start.
	Seq int64

	Hash  string
	State []byte
	At    time.Time
}

// SnapshotWriter stores snapshots. Implemented by store.Store and
// snapshot.Redis.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, s Snapshot) error
}

// MultiWriter writes every snapshot to all writers and joins their errors.
func MultiWriter(writers ...SnapshotWriter) SnapshotWriter {
	return multiWriter(writers)
}

type multiWriter []SnapshotWriter

func (m multiWriter) WriteSnapshot(ctx context.Context, s Snapshot) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteSnapshot(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PersistConfig configures Persist.
type PersistConfig[S any] struct {
	// Run identifies the program run, usually the program ID.
	Run string

	// Start is the Seq of the state the program starts from: 0 for a new
	// run, the restored seq for a resumed one.
	Start int64

	// Every writes a snapshot after every Nth message. Defaults to 1.
	Every int

	// SkipInitial disables the snapshot of the starting state.
	SkipInitial bool

	// Encode serializes the state. Defaults to json.Marshal.
	Encode func(S) ([]byte, error)

	// Logger receives failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Timeout bounds each write. Zero means no timeout.
	Timeout time.Duration

	// Clock stamps snapshots. Defaults to time.Now.
	Clock func() time.Time
}

func (c *PersistConfig[S]) parse() {
	if c.Every < 1 {
		c.Every = 1
	}
	if c.Encode == nil {
		c.Encode = func(s S) ([]byte, error) { return json.Marshal(s) }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Persist writes the state read after the rest of the chain returns to w.
// Together with Journal it allows a run to be replayed and checked: folding
// the first Seq journaled messages over the Seq 0 state must reproduce the
// hash of the snapshot at Seq. Install the two next to each other so they
// count the same messages.
//
// Failures are logged; the dispatch always completes.
func Persist[E, S, M any](w SnapshotWriter, cfg PersistConfig[S]) tea.Middleware[E, S, M] {
	cfg.parse()

	write := func(state S, seq int64) {
		data, err := cfg.Encode(state)
		if err != nil {
			cfg.Logger.Error("persist: encode failed", "run", cfg.Run, "seq", seq, "error", err)
			return
		}
		hash, err := canon.StateHashJSON(data)
		if err != nil {
			cfg.Logger.Error("persist: hash failed", "run", cfg.Run, "seq", seq, "error", err)
			return
		}

		ctx, cancel := withTimeout(cfg.Timeout)
		defer cancel()

		snap := Snapshot{Run: cfg.Run, Seq: seq, Hash: hash, State: data, At: cfg.Clock()}
		if err := w.WriteSnapshot(ctx, snap); err != nil {
			cfg.Logger.Error("persist: write failed", "run", cfg.Run, "seq", seq, "error", err)
			return
		}
		cfg.Logger.Debug("persist: snapshot written", "run", cfg.Run, "seq", seq, "hash", hash)
	}

	return func(_ E, read func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		if !cfg.SkipInitial {
			write(read(), cfg.Start)
		}

		seq := cfg.Start
		return func(msg M) {
			next(msg)
			seq++
			if seq%int64(cfg.Every) == 0 {
				write(read(), seq)
			}
		}
	}
}
