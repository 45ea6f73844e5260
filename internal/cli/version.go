package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridden at link time:
//
//	-ldflags "-X github.com/roach88/trellis/internal/cli.version=v0.4.0 \
//	          -X github.com/roach88/trellis/internal/cli.commit=$(git rev-parse --short HEAD) \
//	          -X github.com/roach88/trellis/internal/cli.buildDate=$(date -u +%Y-%m-%d)"
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

// VersionInfo is the payload of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print build metadata",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format: rootOpts.Format,
				Writer: cmd.OutOrStdout(),
			}
			info := VersionInfo{
				Version:   version,
				Commit:    commit,
				BuildDate: buildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if formatter.Format == "json" {
				return formatter.Success(info)
			}
			fmt.Fprintf(formatter.Writer, "trellis %s", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(formatter.Writer, " (commit %s", info.Commit)
				if info.BuildDate != "" {
					fmt.Fprintf(formatter.Writer, ", built %s", info.BuildDate)
				}
				fmt.Fprint(formatter.Writer, ")")
			}
			fmt.Fprintf(formatter.Writer, " %s %s\n", info.GoVersion, info.Platform)
			return nil
		},
	}
}
