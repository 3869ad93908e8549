package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tea/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "missing"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run every scenario file in a directory against the demo application.

A scenario passes when its expectations and assertions hold and, if
golden/<name>.golden exists next to it, its canonical trace matches the
golden file byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  tea test ./scenarios
  tea test ./scenarios --filter "counter*"
  tea test ./scenarios --update
  tea test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	f := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), err)
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		f.VerboseLog("running %s", file)
		sr := runScenarioFile(file, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := f.Emit(result, func(w io.Writer) { writeTestText(w, result) }); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns the scenarios in dir whose base name (without
// extension) matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	files, err := harness.FindScenarios(dir)
	if err != nil || filter == "" {
		return files, err
	}

	var matched []string
	for _, path := range files {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			matched = append(matched, path)
		}
	}
	return matched, nil
}

func runScenarioFile(file string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	data, err := harness.MarshalGolden(scenario.Name, result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to marshal trace: %v", err))
		return sr
	}

	goldenPath := goldenFilePath(file)
	switch {
	case update:
		if err := writeGolden(goldenPath, data); err != nil {
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
			return sr
		}
		sr.Golden = "updated"
	default:
		want, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			sr.Golden = "missing"
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
			return sr
		case !bytes.Equal(want, data):
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
		default:
			sr.Golden = "match"
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// goldenFilePath returns golden/<name>.golden next to the scenario file.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeTestText(w io.Writer, result TestResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, sr := range result.Scenarios {
		if sr.Pass {
			suffix := ""
			if sr.Golden == "updated" {
				suffix = " (golden updated)"
			}
			fmt.Fprintf(w, "✓ %s%s\n", sr.Name, suffix)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
