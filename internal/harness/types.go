package harness

import (
	"encoding/json"

	"github.com/roach88/tea/internal/demo"
)

// TraceEvent is one message that reached the handler, with the state it
// produced.
type TraceEvent struct {
	// Seq is the 1-based position of the message in the run.
	Seq int64 `json:"seq"`

	// Step is the index of the scenario step that was being processed.
	// Follow-up messages published by commands carry the step that caused
	// them.
	Step int `json:"step"`

	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`

	Number  int      `json:"number"`
	Strings []string `json:"strings"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Program is the ID of the program that ran the scenario.
	Program string `json:"program"`

	// Trace holds every message the handler saw, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors explains each failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Final is the state after the last step settled.
	Final demo.State `json:"final"`

	// Observed is the counter as delivered to a subscriber.
	Observed []int `json:"observed"`

	// LastAppend is the value recorded by the environment.
	LastAppend string `json:"last_append"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Kinds returns the message kinds of the trace, in order.
func (r *Result) Kinds() []string {
	kinds := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		kinds[i] = ev.Kind
	}
	return kinds
}
