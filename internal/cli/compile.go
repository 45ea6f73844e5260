package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/fn"
	"github.com/roach88/trellis/internal/sqlgen"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string
	Output  string // output file path
}

// CompileResult is the payload of a successful compilation.
type CompileResult struct {
	Dialect string   `json:"dialect"`
	Columns []string `json:"columns,omitempty"`
	SQL     string   `json:"sql"`
	Args    []any    `json:"args"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query file to parameterized SQL",
		Long: `Compile a query pipeline to parameterized SQL for one dialect.

The query is validated eagerly; nothing is executed and no connection
is opened. Operations that fetch eagerly (sample_fast, map_range,
list_median) are only available through the run command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "sqlite", "target dialect (postgres|sqlite|duck|mysql)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompileCmd(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	prof, err := dialect.Resolve(opts.Dialect)
	if err != nil {
		return reportError(formatter, err)
	}

	query, err := LoadQuery(path)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Compiling %s for %s", path, prof.Name)

	compiled, err := BuildQuery(context.Background(), fn.New(prof), nil, query)
	if err != nil {
		return reportError(formatter, err)
	}

	result, err := renderCompiled(prof, compiled)
	if err != nil {
		return reportError(formatter, err)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeResultFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
			return WrapExitError(ExitCommandError, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}
	return outputCompileSuccess(formatter, result)
}

// writeResultFile writes the compiled statement as indented JSON.
func writeResultFile(result *CompileResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// renderCompiled finalizes the compiled query into statement text and
// bound arguments.
func renderCompiled(prof dialect.Profile, compiled *Compiled) (*CompileResult, error) {
	result := &CompileResult{Dialect: prof.Name}
	var code sqlgen.Fragment
	if compiled.Rel != nil {
		code = compiled.Rel.Code
		for _, col := range compiled.Rel.Type.Columns {
			result.Columns = append(result.Columns, col.Name)
		}
	} else {
		code = sqlgen.Join("", sqlgen.Raw("SELECT "), compiled.Expr.Code)
	}
	stmt, args, err := sqlgen.Finalize(code, prof.Numbered)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	result.SQL = stmt
	result.Args = args
	return result, nil
}

// outputCompileSuccess outputs the compiled SQL.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	if len(result.Columns) > 0 {
		fmt.Fprintf(formatter.Writer, "-- %s; columns: %v\n", result.Dialect, result.Columns)
	} else {
		fmt.Fprintf(formatter.Writer, "-- %s; scalar\n", result.Dialect)
	}
	fmt.Fprintln(formatter.Writer, result.SQL)
	if len(result.Args) > 0 {
		fmt.Fprintln(formatter.Writer, "-- args:")
		for i, a := range result.Args {
			fmt.Fprintf(formatter.Writer, "--   [%d] %#v\n", i+1, a)
		}
	}
	return nil
}

// reportError prints an error in the configured format and converts
// it to an exit code: unusable inputs are command errors, rejected
// queries are failures.
func reportError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Message, nil)
	}
	_ = formatter.Error(errorCode(err), err.Error(), nil)
	return WrapExitError(ExitFailure, err.Error(), nil)
}
