package harness

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tea/internal/demo"
)

//go:embed schema.cue
var schemaSource []byte

// Scenario is a test scenario loaded from YAML.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	Description string `yaml:"description" json:"description"`

	// Initial is the state the program starts from.
	Initial Initial `yaml:"initial" json:"initial"`

	// Steps are sent in order. The program settles after each one.
	Steps []Step `yaml:"steps" json:"steps"`

	Expect     Expectation `yaml:"expect" json:"expect"`
	Assertions []Assertion `yaml:"assertions" json:"assertions,omitempty"`
}

// Initial is the starting state of a scenario.
type Initial struct {
	Number  int      `yaml:"number" json:"number"`
	Strings []string `yaml:"strings" json:"strings"`
}

// State converts i into the demo state.
func (i Initial) State() demo.State {
	return demo.State{Number: i.Number, Strings: slices.Clone(i.Strings)}
}

// Step is one message sent to the program.
type Step struct {
	// Message is a message kind known to the demo codec.
	Message string `yaml:"message" json:"message"`

	// Args are the message fields, by JSON name.
	Args map[string]any `yaml:"args" json:"args,omitempty"`
}

// Expectation describes the outcome of a scenario. Nil fields are not
// checked.
type Expectation struct {
	Number          *int      `yaml:"number" json:"number,omitempty"`
	Strings         *[]string `yaml:"strings" json:"strings,omitempty"`
	ObservedNumbers *[]int    `yaml:"observed_numbers" json:"observed_numbers,omitempty"`
	LastAppend      *string   `yaml:"last_append" json:"last_append,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// Assertion is a check against the recorded trace.
type Assertion struct {
	Type string `yaml:"type" json:"type"`

	// Message is the kind for trace_contains and trace_count.
	Message string `yaml:"message" json:"message,omitempty"`

	// Args narrows trace_contains to messages whose payload has these
	// fields.
	Args map[string]any `yaml:"args" json:"args,omitempty"`

	// Messages lists kinds for trace_order.
	Messages []string `yaml:"messages" json:"messages,omitempty"`

	// Count is the exact number of occurrences for trace_count.
	Count int `yaml:"count" json:"count,omitempty"`
}

// ValidationError is one schema violation in a scenario file.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) String() string {
	var buf strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&buf, "line %d: ", e.Line)
	}
	if e.Path != "" {
		fmt.Fprintf(&buf, "%s: ", e.Path)
	}
	buf.WriteString(e.Message)
	return buf.String()
}

// SchemaError reports a scenario file that does not match the schema.
type SchemaError struct {
	File   string
	Errors []ValidationError
}

func (e *SchemaError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Errors[0])
	}
	return fmt.Sprintf("%s: %d schema errors, first: %s", e.File, len(e.Errors), e.Errors[0])
}

// Validate checks a scenario document against the embedded CUE schema.
// It returns nil if the document is valid.
func Validate(filename string, data []byte) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fromCUEError(filename, err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fromCUEError(filename, err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fromCUEError(filename, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fromCUEError(filename, err)
	}
	return nil
}

// fromCUEError maps CUE errors to document paths. A failed disjunction
// yields one error per alternative at the same path; only the first is kept.
func fromCUEError(filename string, err error) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		path := documentPath(e.Path())
		if seen[path] {
			continue
		}
		seen[path] = true

		format, args := e.Msg()
		out = append(out, ValidationError{
			Path:    path,
			Message: fmt.Sprintf(format, args...),
			Line:    lineIn(filename, e),
		})
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Message: err.Error()})
	}
	return out
}

// documentPath drops the schema definitions (#Scenario, #Step) that prefix
// a CUE error path, leaving the path inside the YAML document.
func documentPath(selectors []string) string {
	i := 0
	for i < len(selectors) && strings.HasPrefix(selectors[i], "#") {
		i++
	}
	return strings.Join(selectors[i:], ".")
}

// lineIn returns the first line of filename that e points at, or 0.
func lineIn(filename string, e cueerrors.Error) int {
	positions := append(slices.Clip(e.InputPositions()), e.Position())
	for _, pos := range positions {
		if pos.IsValid() && pos.Filename() == filename {
			return pos.Line()
		}
	}
	return 0
}

// LoadScenario loads a scenario from a YAML file.
//
// The file is validated against the schema, decoded strictly (unknown fields
// are errors) and every step is checked against the demo codec.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario is LoadScenario for an in-memory document. filename is used
// in error messages only.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if errs := Validate(filename, data); len(errs) > 0 {
		return nil, &SchemaError{File: filename, Errors: errs}
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks what the schema cannot: that every step decodes
// into a demo message.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if _, err := step.Build(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// Build returns the message described by the step.
func (s Step) Build() (demo.Message, error) {
	return demo.FromArgs(s.Message, s.Args)
}

// FindScenarios returns the .yaml and .yml files directly under dir,
// sorted by name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
