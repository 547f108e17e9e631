package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/internal/builtin"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the directives a tutorial can use",
	RunE:  runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	registry, err := builtin.NewRegistry(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Directives:")
	fmt.Fprintln(out, "-----------")
	for _, name := range registry.Names() {
		line := "  @" + name
		if aliases := registry.Aliases(name); len(aliases) > 0 {
			line += fmt.Sprintf(" (alias: @%s)", strings.Join(aliases, ", @"))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
