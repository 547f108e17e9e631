package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/internal/builtin"
	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/engine"
	"github.com/travissluka/hutt/internal/history"
	"github.com/travissluka/hutt/internal/shell"
	"github.com/travissluka/hutt/internal/tui"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

var (
	runWorkDir      string
	runList         bool
	runSteps        string
	runResume       bool
	runIgnoreErrors bool
	runEnv          []string
	runLogFile      string
	runNoHistory    bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run the commands of a markdown tutorial",
	Long: `Run tokenizes FILE, builds its command list and executes every step
in a single persistent shell. The run stops at the first failing step
unless --ignore-errors is given.

Step selection:
  --list            list the steps without running anything
  --steps 1,3,5-7   run only the given steps (headings are not printed)`,
	Args: exactlyOneFile,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runWorkDir, "workdir", "w", "", "working directory, created if missing (default from config)")
	runCmd.Flags().BoolVarP(&runList, "list", "l", false, "list the steps without running them")
	runCmd.Flags().StringVarP(&runSteps, "steps", "s", "", "comma separated step indices and ranges to run")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "resume a previous run (not implemented)")
	runCmd.Flags().BoolVarP(&runIgnoreErrors, "ignore-errors", "i", false, "keep going after a failing step")
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "extra shell variable as KEY=VALUE (repeatable)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "command output log (default: <workdir>/hutt.log)")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(runCmd)
}

func exactlyOneFile(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError("expected exactly one markdown file, got %d arguments", len(args))
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := logging.New("run")

	tutorial, err := filepath.Abs(args[0])
	if err != nil {
		return usageError("invalid tutorial path %q: %v", args[0], err)
	}
	if info, err := os.Stat(tutorial); err != nil || info.IsDir() {
		return usageError("tutorial file %q does not exist", args[0])
	}

	workDir := cfg.Run.WorkDir
	if cmd.Flags().Changed("workdir") {
		workDir = runWorkDir
	}
	if workDir, err = filepath.Abs(workDir); err != nil {
		return usageError("invalid working directory %q: %v", workDir, err)
	}

	vars, err := parseEnv(cfg.Run.Env, runEnv)
	if err != nil {
		return err
	}

	opts := engine.Options{
		List:         runList,
		Steps:        runSteps,
		Resume:       runResume,
		IgnoreErrors: runIgnoreErrors || cfg.Run.IgnoreErrors,
	}

	registry, err := builtin.NewRegistry(cfg)
	if err != nil {
		return err
	}

	cmds, err := command.LoadFile(tutorial, registry)
	if err != nil {
		return err
	}

	mode, _, err := engine.Validate(opts, command.AssignIndices(cmds))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mode != engine.ModeList {
		fmt.Fprint(out, tui.Banner())
		fmt.Fprintf(out, "%s %s\n", tui.MutedStyle.Render("Input markdown file:"), tutorial)
		fmt.Fprintf(out, "%s %s\n", tui.MutedStyle.Render("Working directory:  "), workDir)

		if err := os.MkdirAll(workDir, 0755); err != nil {
			return hutterr.Wrap(err, "failed to create working directory").
				WithCode(hutterr.CodeIO).
				WithDetail("path", workDir)
		}
	}

	logFile := runLogFile
	if logFile == "" {
		logFile = cfg.LogFilePath(workDir)
	} else if logFile, err = filepath.Abs(logFile); err != nil {
		return usageError("invalid log file %q: %v", runLogFile, err)
	}

	env := &command.Environment{
		TutorialFile: tutorial,
		WorkDir:      workDir,
		LogFile:      logFile,
		Vars:         vars,
	}

	engCfg := engine.Config{
		Registry: registry,
		Reporter: tui.NewConsole(out),
	}
	if mode != engine.ModeList && !runNoHistory && cfg.History.Path != "" {
		store, err := history.Open(history.Config{Path: cfg.History.Path})
		if err != nil {
			logger.Warn("History disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
			engCfg.Recorder = store
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := engine.New(engCfg).Run(ctx, cmds, env, opts)
	if err != nil {
		if hutterr.HasCode(err, hutterr.CodeSessionFatal) {
			fmt.Fprintln(out, tui.RenderError("error in script execution: "+err.Error()))
			if tail := shell.StderrOf(err); tail != "" {
				fmt.Fprintln(out, tui.Stderr(tail))
			}
			return &ExitError{Code: 1}
		}
		if ctx.Err() != nil {
			return hutterr.Wrap(context.Cause(ctx), "run interrupted")
		}
		return err
	}

	if code := summary.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// parseEnv merges the config variables with KEY=VALUE flag values.
// Flags win over config.
func parseEnv(base map[string]string, pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(base)+len(pairs))
	for k, v := range base {
		vars[k] = v
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usageError("invalid --env value %q, expected KEY=VALUE", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
