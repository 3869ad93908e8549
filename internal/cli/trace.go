package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tea/internal/canon"
	"github.com/roach88/tea/internal/store"
	"github.com/roach88/tea/middleware"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Program  string // optional - defaults to the latest run
	Kind     string // optional - filter to one message kind
}

// TraceEntry is one journaled message in the timeline.
type TraceEntry struct {
	Seq     int64           `json:"seq"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Messages int            `json:"messages"`
	Kinds    map[string]int `json:"kinds"`

	// SnapshotSeq and SnapshotHash describe the latest snapshot, if any.
	SnapshotSeq  int64  `json:"snapshot_seq"`
	SnapshotHash string `json:"snapshot_hash,omitempty"`
}

// TraceOutput holds the complete trace output.
type TraceOutput struct {
	Run   string `json:"run"`
	Label string `json:"label,omitempty"`

	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`

	// Hash is the canonical content hash of the timeline's kinds and
	// payloads, stable across runs that saw the same messages.
	Hash string `json:"hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the message journal of a run",
		Long: `Show the journaled messages of a recorded run in order.

Without --program the most recently started run is shown. --kind limits
the timeline to one message kind.

Examples:
  tea trace --db ./tea.db
  tea trace --db ./tea.db --program 0190f3c4-... --kind append
  tea trace --db ./tea.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $TEA_DB)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "run to show (default latest)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one message kind")

	return cmd
}

func runTrace(cmd *cobra.Command, opts *TraceOptions) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	st, err := openExisting(f, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListRuns(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}

	run := opts.Program
	if run == "" {
		run, err = st.LatestRun(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "no runs found in database", err)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to find latest run", err)
		}
	}
	i := slices.IndexFunc(infos, func(info store.RunInfo) bool { return info.ID == run })
	if i < 0 {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", run), store.ErrNotFound)
	}

	var entries []middleware.Entry
	if opts.Kind != "" {
		entries, err = st.ReadMessagesByKind(ctx, run, opts.Kind)
	} else {
		entries, err = st.ReadMessages(ctx, run)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read journal", err)
	}

	out, err := buildTrace(infos[i], entries)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to hash trace", err)
	}

	snap, err := st.LatestSnapshot(ctx, run)
	switch {
	case err == nil:
		out.Stats.SnapshotSeq = snap.Seq
		out.Stats.SnapshotHash = snap.Hash
	case !errors.Is(err, store.ErrNotFound):
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read snapshot", err)
	}

	return f.Emit(out, func(w io.Writer) { writeTraceText(w, out) })
}

// hashedEntry is the part of an entry that is stable across runs.
type hashedEntry struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func buildTrace(info store.RunInfo, entries []middleware.Entry) (TraceOutput, error) {
	out := TraceOutput{
		Run:      info.ID,
		Label:    info.Label,
		Timeline: make([]TraceEntry, 0, len(entries)),
		Stats:    TraceStats{Kinds: make(map[string]int)},
	}

	hashed := make([]hashedEntry, 0, len(entries))
	for _, e := range entries {
		out.Timeline = append(out.Timeline, TraceEntry{Seq: e.Seq, Kind: e.Kind, Payload: e.Payload, At: e.At})
		out.Stats.Kinds[e.Kind]++
		hashed = append(hashed, hashedEntry{Kind: e.Kind, Payload: e.Payload})
	}
	out.Stats.Messages = len(entries)

	hash, err := canon.TraceHash(hashed)
	if err != nil {
		return TraceOutput{}, err
	}
	out.Hash = hash
	return out, nil
}

func writeTraceText(w io.Writer, out TraceOutput) {
	title := out.Run
	if out.Label != "" {
		title = fmt.Sprintf("%s (%s)", out.Run, out.Label)
	}
	fmt.Fprintf(w, "Run %s\n\n", title)

	if len(out.Timeline) == 0 {
		fmt.Fprintln(w, "  (no messages)")
	}
	for _, e := range out.Timeline {
		fmt.Fprintf(w, "  [%d] %-10s %s\n", e.Seq, e.Kind, e.Payload)
	}

	fmt.Fprintf(w, "\nMessages: %d\n", out.Stats.Messages)
	if out.Stats.SnapshotHash != "" {
		fmt.Fprintf(w, "Latest snapshot: seq %d, hash %s\n", out.Stats.SnapshotSeq, out.Stats.SnapshotHash)
	}
	fmt.Fprintf(w, "Trace hash: %s\n", out.Hash)
}
