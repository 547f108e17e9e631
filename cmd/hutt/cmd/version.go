package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Info())
		fmt.Fprintf(cmd.OutOrStdout(), "  Shell protocol: %s\n", version.ComponentVersion("shell"))
		fmt.Fprintf(cmd.OutOrStdout(), "  History schema: %s\n", version.ComponentVersion("history"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
