package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tea/internal/harness"
)

// FileValidation holds the validation result of one scenario file.
type FileValidation struct {
	File   string                    `json:"file"`
	Valid  bool                      `json:"valid"`
	Errors []harness.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results for all files.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Check scenario files against the scenario schema and the message codec
without starting a program. Faster than test for development feedback.

Exit codes:
  0 - All files are valid
  1 - One or more files are invalid
  2 - Command error (file not found)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, files []string) error {
	f := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cannot read %s", file), err)
		}

		fv := validateFile(file, data)
		result.Files = append(result.Files, fv)
		if !fv.Valid {
			result.Valid = false
		}
	}

	if err := f.Emit(result, func(w io.Writer) { writeValidateText(w, result) }); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateFile runs the schema first, then the full load so codec errors
// (such as misspelled args) are reported too.
func validateFile(file string, data []byte) FileValidation {
	fv := FileValidation{File: file}

	if errs := harness.Validate(file, data); len(errs) > 0 {
		fv.Errors = errs
		return fv
	}
	if _, err := harness.ParseScenario(file, data); err != nil {
		fv.Errors = []harness.ValidationError{{Message: err.Error()}}
		return fv
	}

	fv.Valid = true
	return fv
}

func writeValidateText(w io.Writer, result ValidationResult) {
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.File)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.File)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
