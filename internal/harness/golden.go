package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tea/internal/canon"
	"github.com/roach88/tea/internal/demo"
)

// TraceSnapshot is the golden form of a scenario run. It leaves out the
// program ID, which changes on every run.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`
	Final    demo.State   `json:"final"`
}

// MarshalGolden returns the canonical JSON golden form of result.
func MarshalGolden(name string, result *Result) ([]byte, error) {
	final := result.Final
	if final.Strings == nil {
		final.Strings = []string{}
	}
	return canon.Marshal(TraceSnapshot{
		Scenario: name,
		Trace:    result.Trace,
		Final:    final,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run. A trace mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// name without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalGolden(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
