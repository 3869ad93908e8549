package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/tea"
	"github.com/roach88/tea/internal/demo"
	"github.com/roach88/tea/internal/testutil"
)

// DefaultStepTimeout bounds how long a single step may take to settle.
const DefaultStepTimeout = 5 * time.Second

// Config configures a scenario run.
type Config struct {
	// Logger is passed to the program and the environment. Defaults to a
	// logger that discards everything.
	Logger *slog.Logger

	// Options are applied after the harness's own program options.
	// Middleware given here wraps the trace recorder, so a middleware that
	// suppresses a message keeps it out of the trace too.
	Options []tea.Option

	// StepTimeout bounds each step. Defaults to DefaultStepTimeout.
	StepTimeout time.Duration

	// Initial replaces the scenario's initial state, for example with a
	// state restored from a recorded run.
	Initial *demo.State
}

// Run executes a scenario with the default configuration.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, Config{})
}

// RunContext executes a scenario and returns the result.
//
// Execution flow:
//  1. Start a program from the scenario's (or the configured) initial state
//  2. Subscribe to record every committed counter value
//  3. Send each step, then settle so follow-up messages land
//  4. Close the program, then check expectations and assertions
//
// An error is returned only when the scenario could not run at all. Failed
// expectations are reported in the result.
func RunContext(ctx context.Context, scenario *Scenario, cfg Config) (*Result, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}

	environment := demo.NewEnvironment(cfg.Logger)
	rec := &traceRecorder{}

	opts := []tea.Option{tea.WithLogger(cfg.Logger)}
	opts = append(opts, cfg.Options...)
	opts = append(opts, tea.WithMiddleware(rec.middleware()))

	initial := scenario.Initial.State()
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}

	var env demo.Env = environment
	p, err := tea.New(initial, env, demo.Handler(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start program: %w", err)
	}
	defer p.Close()

	observed := testutil.NewRecorder[int]()
	p.Subscribe(func(s demo.State) {
		observed.Record(s.Number)
	})

	for i, step := range scenario.Steps {
		msg, err := step.Build()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		rec.setStep(i)
		if err := sendAndSettle(ctx, p, msg, cfg.StepTimeout); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Message, err)
		}

		cfg.Logger.Debug("step applied",
			"scenario", scenario.Name,
			"step", i,
			"message", step.Message,
			"version", p.Version(),
		)
	}

	final := p.Read()
	// Close delivers every pending notification before returning.
	p.Close()

	result := NewResult()
	result.Program = p.ID()
	result.Trace = rec.trace()
	result.Final = final
	result.Observed = observed.Values()
	result.LastAppend = environment.LastAppend()

	for _, msg := range checkExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func sendAndSettle(ctx context.Context, p *tea.Program[demo.Env, demo.State, demo.Message], msg demo.Message, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.Send(ctx, msg); err != nil {
		return err
	}
	return p.Settle(ctx)
}

// traceRecorder is the innermost middleware of a scenario run. It records
// each message after the handler has committed its state.
type traceRecorder struct {
	mu     sync.Mutex
	step   int
	events []TraceEvent
}

func (r *traceRecorder) setStep(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step = i
}

func (r *traceRecorder) trace() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *traceRecorder) middleware() tea.Middleware[demo.Env, demo.State, demo.Message] {
	return func(_ demo.Env, read func() demo.State, next tea.Dispatch[demo.Message]) tea.Dispatch[demo.Message] {
		return func(msg demo.Message) {
			next(msg)
			state := read()

			kind, payload, err := demo.Encode(msg)
			if err != nil {
				kind = fmt.Sprintf("%T", msg)
			}
			strs := slices.Clone(state.Strings)
			if strs == nil {
				strs = []string{}
			}

			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, TraceEvent{
				Seq:     int64(len(r.events) + 1),
				Step:    r.step,
				Kind:    kind,
				Payload: payload,
				Number:  state.Number,
				Strings: strs,
			})
		}
	}
}

func checkExpectations(result *Result, expect Expectation) []string {
	var errs []string

	if expect.Number != nil && *expect.Number != result.Final.Number {
		errs = append(errs, fmt.Sprintf("number: expected %d, got %d", *expect.Number, result.Final.Number))
	}
	if expect.Strings != nil && !equalStrings(*expect.Strings, result.Final.Strings) {
		errs = append(errs, fmt.Sprintf("strings: expected %q, got %q", *expect.Strings, result.Final.Strings))
	}
	if expect.ObservedNumbers != nil && !slices.Equal(*expect.ObservedNumbers, result.Observed) {
		errs = append(errs, fmt.Sprintf("observed_numbers: expected %v, got %v", *expect.ObservedNumbers, result.Observed))
	}
	if expect.LastAppend != nil && *expect.LastAppend != result.LastAppend {
		errs = append(errs, fmt.Sprintf("last_append: expected %q, got %q", *expect.LastAppend, result.LastAppend))
	}

	return errs
}

// equalStrings treats nil and empty as equal.
func equalStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}
