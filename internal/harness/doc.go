// Package harness runs YAML scenarios against the demo application.
//
// Each scenario starts a real tea.Program with the demo handler and
// environment, sends its steps one at a time, and lets the program settle
// after each step so that follow-up messages published by commands land
// before the next step. Every message that reaches the handler is recorded
// in a trace together with the state it produced.
//
// # Scenario Format
//
//	name: append_then_augment
//	description: "Appending and augmenting strings"
//	initial:
//	  number: 0
//	  strings: []
//	steps:
//	  - message: append
//	    args: { value: "a" }
//	  - message: augment
//	    args: { suffix: "!" }
//	expect:
//	  strings: ["a!"]
//	  last_append: "a"
//	assertions:
//	  - type: trace_order
//	    messages: [append, noop, augment]
//
// Scenario files are decoded strictly (unknown fields are errors) and
// validated against an embedded CUE schema before they run.
//
// # Expectations
//
// Every field of expect is optional:
//   - number: the final counter
//   - strings: the final list of strings
//   - observed_numbers: the counter as seen by a subscriber, starting with
//     the initial state and then once per committed update
//   - last_append: the value recorded by the environment
//
// # Assertions
//
// Trace assertions check the recorded messages:
//   - trace_contains: a message kind, optionally with matching args
//   - trace_order: kinds appear in the given relative order
//   - trace_count: a kind appears exactly count times
//
// # Golden Files
//
// RunWithGolden stores the canonical JSON trace under testdata/golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
