package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tea"
	"github.com/roach88/tea/internal/demo"
	"github.com/roach88/tea/internal/harness"
	"github.com/roach88/tea/internal/snapshot"
	"github.com/roach88/tea/internal/store"
	"github.com/roach88/tea/middleware"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database      string
	Workers       int
	Redis         string
	SnapshotEvery int
	Resume        string // optional - run to continue

	// IDGenerator overrides the run ID generator (for testing).
	// If nil, defaults to tea.UUIDv7Generator.
	IDGenerator tea.IDGenerator
}

// RunOutput is the result of a recorded scenario run.
type RunOutput struct {
	Run        string                          `json:"run"`
	Scenario   string                          `json:"scenario"`
	Pass       bool                            `json:"pass"`
	Start      int64                           `json:"start,omitempty"`
	Messages   int                             `json:"messages"`
	Final      demo.State                      `json:"final"`
	LastAppend string                          `json:"last_append"`
	Errors     []string                        `json:"errors,omitempty"`
	Kinds      map[string]middleware.KindStats `json:"kinds"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario and record it",
		Long: `Run a scenario against the demo application and record the run.

Every message is journaled to the SQLite database and the state is
snapshotted, so the run can later be checked with replay and inspected
with trace. With --redis the snapshots are also published to Redis.

With --resume the scenario continues a recorded run: the run's latest
state is restored from its newest snapshot and journal, the scenario's
initial state is ignored, and new messages extend the same journal. A run
without snapshots starts from the scenario's initial state.

Exit codes:
  0 - Scenario passed
  1 - Scenario expectations failed
  2 - Command error (invalid scenario, database or Redis unavailable)

Examples:
  tea run --db ./tea.db ./scenarios/counter.yaml
  tea run --db ./tea.db --workers 4 ./scenarios/strings.yaml
  tea run --db ./tea.db --redis redis://localhost:6379/0 ./scenarios/mixed.yaml
  tea run --db ./tea.db --resume 0190f3c4-... ./scenarios/counter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecorded(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $TEA_DB)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "effect worker pool size, 0 for a goroutine per effect (default $TEA_WORKERS)")
	cmd.Flags().StringVar(&opts.Redis, "redis", "", "Redis URL for the snapshot sink (default $TEA_REDIS_URL)")
	cmd.Flags().IntVar(&opts.SnapshotEvery, "snapshot-every", 0, "snapshot every N messages (default $TEA_SNAPSHOT_EVERY)")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "continue a recorded run from its latest state")

	return cmd
}

// staticID hands out one preset program ID, so journal rows and snapshots
// can be keyed by the run before the program exists.
type staticID string

func (s staticID) Generate() string { return string(s) }

func runRecorded(cmd *cobra.Command, opts *RunOptions, path string) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidFile, "failed to load scenario", err)
	}

	dbPath, err := opts.database(opts.Database)
	if err != nil {
		return err
	}
	f.VerboseLog("opening database %s", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID, initial, start, err := resumePoint(ctx, f, logger, st, opts)
	if err != nil {
		return err
	}
	if err := st.BeginRun(ctx, store.Run{ID: runID, Label: scenario.Name, StartedAt: time.Now()}); err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to record run", err)
	}

	var sink middleware.SnapshotWriter = st
	redisCfg := opts.Config.Redis
	if opts.Redis != "" {
		redisCfg.ConnectionURL = opts.Redis
	}
	if redisCfg.ConnectionURL != "" {
		f.VerboseLog("connecting to redis")
		client, err := snapshot.Connect(ctx, redisCfg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeSnapshotSink, "failed to connect to redis", err)
		}
		defer client.Close()
		sink = middleware.MultiWriter(st, snapshot.NewRedis(client, redisCfg.Prefix, redisCfg.TTL))
	}

	every := opts.SnapshotEvery
	if !cmd.Flags().Changed("snapshot-every") {
		every = opts.Config.SnapshotEvery
	}
	workers := opts.Workers
	if !cmd.Flags().Changed("workers") {
		workers = opts.Config.Workers
	}

	stats := middleware.NewStats()
	programOpts := []tea.Option{
		tea.WithIDGenerator(staticID(runID)),
		tea.WithMiddleware(recordingChain(logger, stats, st, sink, runID, start, every)...),
	}
	if workers > 0 {
		pool := tea.NewPool(workers)
		defer pool.Close()
		programOpts = append(programOpts, tea.WithExecutor(pool))
	}

	logger.Info("run starting", "run", runID, "scenario", scenario.Name, "workers", workers, "start", start)
	result, err := harness.RunContext(ctx, scenario, harness.Config{
		Logger:  logger,
		Options: programOpts,
		Initial: initial,
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "scenario execution failed", err)
	}
	logger.Info("run finished", "run", runID, "messages", len(result.Trace), "pass", result.Pass)

	out := RunOutput{
		Run:        runID,
		Scenario:   scenario.Name,
		Pass:       result.Pass,
		Start:      start,
		Messages:   len(result.Trace),
		Final:      result.Final,
		LastAppend: result.LastAppend,
		Errors:     result.Errors,
		Kinds:      stats.Snapshot(),
	}
	if err := f.Emit(out, func(w io.Writer) { writeRunText(w, out) }); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// resumePoint picks the run to record into. A new run gets a fresh ID and
// starts from the scenario. A resumed run keeps its ID and starts from its
// restored state, journaling after the last recorded message.
func resumePoint(
	ctx context.Context,
	f *OutputFormatter,
	logger *slog.Logger,
	st *store.Store,
	opts *RunOptions,
) (string, *demo.State, int64, error) {
	if opts.Resume == "" {
		gen := opts.IDGenerator
		if gen == nil {
			gen = tea.UUIDv7Generator{}
		}
		return gen.Generate(), nil, 0, nil
	}

	run := opts.Resume
	infos, err := st.ListRuns(ctx)
	if err != nil {
		return "", nil, 0, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}
	if !slices.ContainsFunc(infos, func(info store.RunInfo) bool { return info.ID == run }) {
		return "", nil, 0, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", run), store.ErrNotFound)
	}

	restored, err := store.Restore(ctx, st, run, demo.Decode, demo.Fold)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Warn("run has no snapshots, starting from the scenario", "run", run)
		return run, nil, 0, nil
	case errors.Is(err, store.ErrJournalGap):
		return "", nil, 0, f.Fail(ExitCommandError, ErrCodeGap, fmt.Sprintf("cannot resume run %s", run), err)
	case err != nil:
		return "", nil, 0, f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("cannot resume run %s", run), err)
	}

	logger.Info("run restored", "run", run, "seq", restored.Seq, "snapshot_seq", restored.SnapshotSeq)
	return run, &restored.State, restored.Seq, nil
}

// recordingChain is the middleware stack of a recorded run, outermost
// first. Journal and Persist sit next to each other so their seqs agree.
func recordingChain(
	logger *slog.Logger,
	stats *middleware.Stats,
	journal middleware.MessageJournal,
	sink middleware.SnapshotWriter,
	run string,
	start int64,
	every int,
) []tea.Middleware[demo.Env, demo.State, demo.Message] {
	return []tea.Middleware[demo.Env, demo.State, demo.Message]{
		middleware.Logger[demo.Env, demo.State, demo.Message](logger, middleware.LoggerConfig[demo.Message]{
			Args: []any{"run", run},
			Kind: demo.Kind,
		}),
		middleware.MetricsMiddleware[demo.Env, demo.State, demo.Message](demo.Kind, stats.Collect),
		middleware.Journal[demo.Env, demo.State, demo.Message](journal, demo.Encode, middleware.JournalConfig{
			Run:    run,
			Start:  start,
			Logger: logger,
		}),
		middleware.Persist[demo.Env, demo.State, demo.Message](sink, middleware.PersistConfig[demo.State]{
			Run:    run,
			Start:  start,
			Every:  every,
			Logger: logger,
		}),
	}
}

func writeRunText(w io.Writer, out RunOutput) {
	mark := "✓"
	if !out.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (run %s)\n", mark, out.Scenario, out.Run)
	if out.Start > 0 {
		fmt.Fprintf(w, "  resumed at:  %d\n", out.Start)
	}
	fmt.Fprintf(w, "  messages:    %d\n", out.Messages)
	fmt.Fprintf(w, "  number:      %d\n", out.Final.Number)
	fmt.Fprintf(w, "  strings:     %q\n", out.Final.Strings)
	if out.LastAppend != "" {
		fmt.Fprintf(w, "  last append: %q\n", out.LastAppend)
	}

	kinds := make([]string, 0, len(out.Kinds))
	for kind := range out.Kinds {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		s := out.Kinds[kind]
		fmt.Fprintf(w, "  %-10s x%d (max %s)\n", kind, s.Count, s.Max)
	}

	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
