package cli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/dialect"
)

// DialectInfo describes one target dialect for output.
type DialectInfo struct {
	Name          string `json:"name"`
	Family        string `json:"family"`
	Placeholder   string `json:"placeholder"`
	Quote         string `json:"quote"`
	FullOuterJoin bool   `json:"full_outer_join"`
	CountDistinct bool   `json:"count_distinct"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "List the supported target dialects",
		Long: `List the target dialects queries can compile against, with the
traits that shape generated SQL: placeholder style, identifier quoting,
and which operations the dialect surface includes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, cmd)
		},
	}

	return cmd
}

func runDialects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	infos := make([]DialectInfo, 0, len(dialect.Names))
	for _, name := range dialect.Names {
		prof, err := dialect.Resolve(name)
		if err != nil {
			return reportError(formatter, err)
		}
		placeholder := "?"
		if prof.Numbered {
			placeholder = "$n"
		}
		infos = append(infos, DialectInfo{
			Name:          prof.Name,
			Family:        prof.ID.String(),
			Placeholder:   placeholder,
			Quote:         prof.QuoteChar,
			FullOuterJoin: prof.FullOuterJoin,
			CountDistinct: prof.CountDistinct != "",
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	table := tablewriter.NewWriter(formatter.Writer)
	table.SetHeader([]string{"Name", "Family", "Placeholder", "Quote", "Full Outer Join", "Count Distinct"})
	for _, info := range infos {
		table.Append([]string{
			info.Name,
			info.Family,
			info.Placeholder,
			info.Quote,
			yesNo(info.FullOuterJoin),
			yesNo(info.CountDistinct),
		})
	}
	table.Render()
	fmt.Fprintf(formatter.Writer, "(%d dialect(s))\n", len(infos))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
