package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// These vars are set at build time via ldflags:
// -X github.com/welfaremap/backend/internal/cli.version=v0.3.0
// -X github.com/welfaremap/backend/internal/cli.commit=4f2a91c
// -X github.com/welfaremap/backend/internal/cli.buildTime=2026-08-20T09:00:00Z
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "welfaremap version %s\n", version)
			fmt.Fprintf(out, "  commit:     %s\n", commit)
			fmt.Fprintf(out, "  built:      %s\n", buildTime)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
			return nil
		},
	}
}
