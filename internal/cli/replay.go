package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tea/internal/demo"
	"github.com/roach88/tea/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Program  string // optional - specific run only
}

// ReplayRun is the replay outcome of one run.
type ReplayRun struct {
	store.ReplayResult
	Error string `json:"error,omitempty"`
}

// ReplayOutput holds the overall replay result.
type ReplayOutput struct {
	Runs     []ReplayRun `json:"runs"`
	Total    int         `json:"total"`
	AllMatch bool        `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify their final state",
		Long: `Rebuild the state of recorded runs from their journals and compare it
with the last stored snapshot.

For each run the initial snapshot is decoded, every journaled message is
folded through the pure handler (commands are not run), and the canonical
hash of the result is compared with the hash of the latest snapshot.

Exit codes:
  0 - Every run reproduces its snapshot
  1 - A run diverged or its journal has a gap
  2 - Command error (database not found, etc.)

Examples:
  tea replay --db ./tea.db
  tea replay --db ./tea.db --program 0190f3c4-...
  tea replay --db ./tea.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $TEA_DB)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "replay a specific run only")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	st, err := openExisting(f, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runs []string
	if opts.Program != "" {
		runs = []string{opts.Program}
	} else {
		infos, err := st.ListRuns(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
		}
		for _, info := range infos {
			runs = append(runs, info.ID)
		}
	}

	out := ReplayOutput{
		Runs:     make([]ReplayRun, 0, len(runs)),
		Total:    len(runs),
		AllMatch: true,
	}

	for _, run := range runs {
		f.VerboseLog("replaying %s", run)
		res, err := store.Replay(ctx, st, run, demo.Decode, demo.Fold)
		switch {
		case err == nil:
			out.Runs = append(out.Runs, ReplayRun{ReplayResult: res})
			if !res.Match {
				out.AllMatch = false
			}
		case errors.Is(err, store.ErrJournalGap):
			out.Runs = append(out.Runs, ReplayRun{ReplayResult: store.ReplayResult{Run: run}, Error: err.Error()})
			out.AllMatch = false
		case errors.Is(err, store.ErrNotFound):
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s has no snapshots", run), err)
		default:
			return f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to replay run %s", run), err)
		}
	}

	if err := f.Emit(out, func(w io.Writer) { writeReplayText(w, out, opts.Verbose) }); err != nil {
		return err
	}

	if !out.AllMatch {
		return NewExitError(ExitFailure, "replay did not reproduce every run")
	}
	return nil
}

// openExisting opens the database named by flag or TEA_DB, refusing to
// create a new file.
func openExisting(f *OutputFormatter, opts *RootOptions, flag string) (*store.Store, error) {
	path, err := opts.database(flag)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return st, nil
}

func writeReplayText(w io.Writer, out ReplayOutput, verbose bool) {
	if out.Total == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	for _, r := range out.Runs {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "✗ %s: %s\n", r.Run, r.Error)
		case r.Match:
			fmt.Fprintf(w, "✓ %s: %d messages, hash %s\n", r.Run, r.Messages, r.Actual)
		default:
			fmt.Fprintf(w, "✗ %s: %d messages, expected %s, got %s\n", r.Run, r.Messages, r.Expected, r.Actual)
		}
		if verbose && r.State != nil {
			fmt.Fprintf(w, "  state: %s\n", r.State)
		}
	}

	matched := 0
	for _, r := range out.Runs {
		if r.Error == "" && r.Match {
			matched++
		}
	}
	fmt.Fprintf(w, "\n%d/%d runs reproduced\n", matched, out.Total)
}
