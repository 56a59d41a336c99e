package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/notation"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []notation.ValidationError `json:"errors,omitempty"`
	Warnings []notation.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [notation]",
		Short: "Validate a notation document",
		Long: `Validate a meta-model and its representation meta-model.

Checks names, classifier kinds, attribute and reference types,
representation references, graphical items and constraint expressions.
Without an argument the configured --notation is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Notation
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if path == "" {
		return NewExitError(ExitCommandError, "no notation given")
	}

	n, err := notation.Load(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d classifier(s) and %d representation(s) from %s",
		len(n.MetaModel.Classifiers), len(n.Representation.Representations), n.Source)

	all := notation.Validate(n)
	errs := notation.Errors(all)
	var warnings []notation.ValidationError
	for _, e := range all {
		if e.Warning {
			warnings = append(warnings, e)
		}
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs, warnings)
	}
	return outputValidateSuccess(formatter, warnings)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, warnings []notation.ValidationError) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Warnings: warnings})
	}

	writeValidationLines(formatter.Writer, warnings)
	fmt.Fprintf(formatter.Writer, "%s Notation valid\n", passMark())
	return nil
}

// outputValidationErrors outputs validation errors and warnings.
func outputValidationErrors(formatter *OutputFormatter, errs, warnings []notation.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs, Warnings: warnings},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := encodeJSON(formatter.Writer, response); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark())
	writeValidationLines(formatter.Writer, errs)
	writeValidationLines(formatter.Writer, warnings)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func writeValidationLines(w io.Writer, errs []notation.ValidationError) {
	for _, e := range errs {
		mark := failMark()
		if e.Warning {
			mark = warnMark()
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", mark, e.Code, e.Field, e.Message)
	}
}
