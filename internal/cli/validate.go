package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/fn"
)

// ValidationIssue is one rejected compilation during validation.
type ValidationIssue struct {
	Dialect string `json:"dialect,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.yaml>",
		Short: "Validate a query file without compiling or executing",
		Long: `Validate a query pipeline against every dialect profile.

The pipeline is type-checked for each target database without opening
any connection, so a query that relies on a primitive one dialect lacks
(count_distinct outside the embedded family, say) is caught here.
Faster than compile for development feedback.`,
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
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	query, err := LoadQuery(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	issues := validateQuery(query, formatter)
	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter)
}

// validateQuery builds the pipeline once per dialect, collecting every
// rejection. A file-shape error repeats identically on all dialects, so
// it is reported once without a dialect label.
func validateQuery(q *Query, formatter *OutputFormatter) []ValidationIssue {
	var issues []ValidationIssue
	for _, name := range dialect.Names {
		prof, err := dialect.Resolve(name)
		if err != nil {
			issues = append(issues, ValidationIssue{Dialect: name, Code: ErrCodeConfig, Message: err.Error()})
			continue
		}
		formatter.VerboseLog("Validating against %s", name)

		_, err = BuildQuery(context.Background(), fn.New(prof), nil, q)
		if err == nil {
			continue
		}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return []ValidationIssue{{Code: loadErr.Code, Message: loadErr.Message}}
		}
		issues = append(issues, ValidationIssue{Dialect: name, Code: errorCode(err), Message: err.Error()})
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Query valid for all dialects")
	return nil
}

// outputValidateError outputs a single load-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Unusable input files are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs the collected validation issues.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: issues,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Dialect != "" {
			fmt.Fprintf(formatter.Writer, "  [%s] %s: %s\n", issue.Dialect, issue.Code, issue.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
