package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// AssertionError describes a failed trace assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] step %d %s %s -> number=%d strings=%q\n",
			ev.Seq, ev.Step, ev.Kind, ev.Payload, ev.Number, ev.Strings)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against trace and returns the
// failures.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Kind == a.Message && matchArgs(ev.Payload, a.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("message %s with args %v", a.Message, a.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrence of each kind comes
// after the first occurrence of the kind listed before it.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Kind]; !seen {
			positions[ev.Kind] = i + 1
		}
	}

	for _, kind := range a.Messages {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all messages present: %v", a.Messages),
				Actual:   fmt.Sprintf("missing message: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Messages); i++ {
		prev, curr := a.Messages[i-1], a.Messages[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("messages in order: %v", a.Messages),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == a.Message {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Message),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// matchArgs reports whether payload has every field of want. Both sides go
// through encoding/json so YAML integers compare equal to JSON numbers.
func matchArgs(payload json.RawMessage, want map[string]any) bool {
	if len(want) == 0 {
		return true
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		return false
	}

	raw, err := json.Marshal(want)
	if err != nil {
		return false
	}
	var norm map[string]any
	if err := json.Unmarshal(raw, &norm); err != nil {
		return false
	}

	for key, value := range norm {
		if !reflect.DeepEqual(got[key], value) {
			return false
		}
	}
	return true
}
