package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/program"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Operations int                        `json:"operations"`
	Errors     []ir.ValidationError       `json:"errors,omitempty"`
	Warnings   []program.RecursionWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a program file",
		Long: `Validate the operations, graph and example values of a program.

Checks action ids, operation references, input arity, output names,
conditions and pattern references. Recursive operations are reported as
warnings; recursion without any condition on the call path ends in
"Max Depth exceeded!" when replayed.

Exit codes:
  0 - Program valid (warnings allowed)
  1 - Validation errors
  2 - Command error (missing file, unsupported format, decode failure)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	prog, err := loadProgram(formatter, path)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Operations: len(prog.Operations),
		Errors:     prog.Validate(),
		Warnings:   program.AnalyzeRecursion(prog.Operations),
	}
	result.Valid = len(result.Errors) == 0
	opts.logger().Debug("program validated",
		"path", path,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))

	if formatter.IsJSON() {
		if !result.Valid {
			if err := formatter.Failure(ErrCodeInvalidProgram, result.Errors[0].Error(), result); err != nil {
				return err
			}
			return validationFailed(result)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning.Message)
	}
	if !result.Valid {
		fmt.Fprintf(w, "%s Validation failed\n\n", mark(false))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s: %s\n", ErrCodeInvalidProgram, e.Error())
		}
		return validationFailed(result)
	}

	fmt.Fprintf(w, "%s Program valid (%d operation(s))\n", mark(true), result.Operations)
	return nil
}

func validationFailed(result ValidationResult) error {
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
