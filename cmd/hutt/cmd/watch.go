package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/internal/builtin"
	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/tui"
	"github.com/travissluka/hutt/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-validate a tutorial whenever it changes",
	Long: `Watch parses FILE and lists its steps, then does so again every time
the file is saved. Nothing is executed. Stop with Ctrl-C.`,
	Args: exactlyOneFile,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-validating")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return usageError("invalid tutorial path %q: %v", args[0], err)
	}

	registry, err := builtin.NewRegistry(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	validate := func(string) {
		validateTutorial(out, path, registry)
	}
	validate(path)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(path, validate)
	w.SetDebounce(watchDebounce)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// validateTutorial loads path and lists its steps, or prints why it failed
func validateTutorial(out io.Writer, path string, registry *command.Registry) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.RenderTitle(fmt.Sprintf("%s (%s)", path, time.Now().Format("15:04:05"))))

	cmds, err := command.LoadFile(path, registry)
	if err != nil {
		fmt.Fprintln(out, tui.RenderError(err.Error()))
		return
	}

	console := tui.NewConsole(out)
	n := command.AssignIndices(cmds)
	for _, c := range cmds {
		console.Listed(c)
	}
	fmt.Fprintln(out, tui.SummaryOKStyle.Render(fmt.Sprintf("%d steps", n)))
}
