package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/internal/history"
	"github.com/travissluka/hutt/internal/tui"
)

var (
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past tutorial runs",
	Long: `Show the runs recorded in the history database, newest first.

Runs are recorded when [history] path is set in the config file.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show the steps of one run (a unique id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than --older-than",
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "age of the runs to delete")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	return history.Open(history.Config{Path: cfg.History.Path})
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tui.IndexStyle).
		Headers("ID", "STARTED", "STATUS", "STEPS", "FAILED", "TUTORIAL")
	for _, r := range runs {
		t.Row(
			r.ID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			fmt.Sprintf("%d/%d", r.Attempted, r.Steps),
			fmt.Sprint(r.Failed),
			r.Tutorial,
		)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, steps, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.RenderTitle("Run "+run.ID))
	fmt.Fprintf(out, "  Tutorial:  %s\n", run.Tutorial)
	fmt.Fprintf(out, "  Workdir:   %s\n", run.WorkDir)
	fmt.Fprintf(out, "  Mode:      %s\n", run.Mode)
	fmt.Fprintf(out, "  Started:   %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Status:    %s (%d run, %d failed, %s)\n", run.Status, run.Attempted, run.Failed, run.Duration)
	if run.Fatal != "" {
		fmt.Fprintf(out, "  Fatal:     %s\n", run.Fatal)
	}
	fmt.Fprintln(out)

	for _, s := range steps {
		status := tui.PassStyle.Render("PASS")
		if s.Status != history.StatusPassed {
			status = tui.FailStyle.Render("FAIL")
		}
		fmt.Fprintf(out, "%s %s %s\n", tui.IndexStyle.Render(fmt.Sprintf("%4d L%-4d", s.Index, s.Line)), status, s.Command)
		if s.Error != "" {
			fmt.Fprintf(out, "          %s\n", tui.ErrorMessageStyle.Render(s.Error))
		}
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(cmd.Context(), historyOlderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s)\n", n)
	return nil
}
