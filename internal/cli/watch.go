package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tea/internal/snapshot"
	"github.com/roach88/tea/middleware"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Redis   string
	Program string
	Count   int // stop after this many published snapshots, 0 for no limit
}

// WatchEvent is one snapshot seen by watch.
type WatchEvent struct {
	Run   string          `json:"run"`
	Seq   int64           `json:"seq"`
	Hash  string          `json:"hash"`
	State json.RawMessage `json:"state"`
	At    time.Time       `json:"at"`

	// Stored is true for the snapshot already in Redis when watch started.
	Stored bool `json:"stored,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the snapshots a run publishes to Redis",
		Long: `Print the snapshots of a run as they are published to Redis by
tea run --redis.

The snapshot already stored for the run is printed first. Watching stops
on interrupt, or after --count published snapshots.

Examples:
  tea watch --redis redis://localhost:6379/0 --program 0190f3c4-...
  tea watch --program 0190f3c4-... --count 1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Redis, "redis", "", "Redis URL (default $TEA_REDIS_URL)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "run to follow")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after N published snapshots (0 = until interrupted)")
	_ = cmd.MarkFlagRequired("program")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	f := opts.formatter(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config.Redis
	if opts.Redis != "" {
		cfg.ConnectionURL = opts.Redis
	}
	client, err := snapshot.Connect(ctx, cfg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeSnapshotSink, "failed to connect to redis", err)
	}
	defer client.Close()
	sink := snapshot.NewRedis(client, cfg.Prefix, cfg.TTL)

	emit := func(s middleware.Snapshot, stored bool) error {
		ev := WatchEvent{Run: s.Run, Seq: s.Seq, Hash: s.Hash, State: s.State, At: s.At, Stored: stored}
		return f.Emit(ev, func(w io.Writer) { writeWatchText(w, ev) })
	}

	latest, err := sink.Latest(ctx, opts.Program)
	switch {
	case err == nil:
		if err := emit(latest, true); err != nil {
			return err
		}
	case !errors.Is(err, snapshot.ErrNotFound):
		return f.Fail(ExitCommandError, ErrCodeSnapshotSink, "failed to read latest snapshot", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		seen    int
		emitErr error
	)
	err = sink.Watch(watchCtx, opts.Program, func(s middleware.Snapshot) {
		if emitErr = emit(s, false); emitErr != nil {
			cancel()
			return
		}
		seen++
		if opts.Count > 0 && seen >= opts.Count {
			cancel()
		}
	})
	if emitErr != nil {
		return emitErr
	}
	// Cancellation is the normal way out: --count reached or interrupted.
	if err != nil && !errors.Is(err, context.Canceled) {
		return f.Fail(ExitCommandError, ErrCodeSnapshotSink, "watch failed", err)
	}
	return nil
}

func writeWatchText(w io.Writer, ev WatchEvent) {
	mark := ""
	if ev.Stored {
		mark = " (stored)"
	}
	fmt.Fprintf(w, "[%d] %s %s%s\n", ev.Seq, ev.Hash, ev.State, mark)
}
