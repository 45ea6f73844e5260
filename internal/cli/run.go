package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/config"
	"github.com/roach88/trellis/internal/exec"
	"github.com/roach88/trellis/internal/fn"
	"github.com/roach88/trellis/internal/rel"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Target string
}

// RunResult is the payload of an executed query.
type RunResult struct {
	Target  string   `json:"target"`
	Dialect string   `json:"dialect"`
	Scalar  bool     `json:"scalar"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Value   any      `json:"value,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Compile a query file and execute it",
		Long: `Compile a query pipeline and execute it against a target named in
the profile file. The target comes from the query file's target field
unless --target overrides it.

Example:
  trellis run --config targets.yaml --target dev query.yaml
  trellis run query.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "target name from the profile file")

	return cmd
}

func runQuery(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	query, err := LoadQuery(path)
	if err != nil {
		return reportError(formatter, err)
	}

	targetName := opts.Target
	if targetName == "" {
		targetName = query.Target
	}
	if targetName == "" {
		return reportError(formatter, &LoadError{Code: ErrCodeLoad,
			Message: "no target: set target in the query file or pass --target"})
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		if rel.IsConfigError(err) {
			return reportError(formatter, err)
		}
		return reportError(formatter, &LoadError{Code: ErrCodeLoad, Message: err.Error()})
	}
	target, prof, err := cfg.Resolve(targetName)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Running %s against %s (%s)", path, targetName, prof.Name)

	log := newLogger(opts.Verbose)
	defer func() { _ = log.Sync() }()

	db, err := exec.Open(prof, target.DSN, log)
	if err != nil {
		_ = formatter.Error(ErrCodeExec, err.Error(), nil)
		return WrapExitError(ExitCommandError, err.Error(), nil)
	}
	defer db.Close()

	ctx := cmd.Context()
	compiled, err := BuildQuery(ctx, fn.New(prof), db, query)
	if err != nil {
		return reportError(formatter, err)
	}

	result := &RunResult{Target: targetName, Dialect: prof.Name}
	start := time.Now()
	switch {
	case compiled.Rel != nil:
		err = fetchRows(ctx, db, compiled.Rel, result)
	case compiled.Expr.State == rel.StateRelation:
		// Nested reductions come back relation-shaped: one row per item.
		err = fetchRows(ctx, db, relationFor(*compiled.Expr), result)
	default:
		result.Scalar = true
		result.Value, err = fetchScalar(ctx, db, *compiled.Expr)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeExec, err.Error(), nil)
		return WrapExitError(ExitFailure, err.Error(), nil)
	}
	formatter.VerboseLog("Fetched in %s", time.Since(start).Round(time.Microsecond))
	return outputRunSuccess(formatter, result)
}

func fetchRows(ctx context.Context, db *exec.DB, r *rel.Relation, result *RunResult) error {
	rows, err := db.Query(ctx, r)
	if err != nil {
		return err
	}
	for _, col := range r.Type.Columns {
		result.Columns = append(result.Columns, col.Name)
	}
	result.Rows = rows
	return nil
}

func fetchScalar(ctx context.Context, db *exec.DB, e rel.Expr) (any, error) {
	if e.Card == rel.CardZeroOrOne {
		v, ok, err := db.MaybeOne(ctx, e)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	return db.One(ctx, e)
}

// relationFor wraps a relation-shaped expression for row fetching.
func relationFor(e rel.Expr) *rel.Relation {
	elem := rel.Type(rel.UnknownType{})
	if lt, ok := e.Type.(rel.ListType); ok {
		elem = lt.Elem
	}
	return &rel.Relation{Name: "result", Type: rel.ListTable(elem), Code: e.Code}
}

// outputRunSuccess outputs the fetched result.
func outputRunSuccess(formatter *OutputFormatter, result *RunResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	if result.Scalar {
		fmt.Fprintf(formatter.Writer, "%s\n", formatCell(result.Value))
		return nil
	}
	table := tablewriter.NewWriter(formatter.Writer)
	table.SetHeader(result.Columns)
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintf(formatter.Writer, "(%d row(s))\n", len(result.Rows))
	return nil
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
