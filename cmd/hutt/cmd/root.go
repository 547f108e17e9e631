package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/travissluka/hutt/internal/tui"
	"github.com/travissluka/hutt/pkg/core/config"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "hutt",
	Short: "hutt - Helpful Utility for Testing Tutorials",
	Long: `hutt runs the shell commands embedded in a markdown tutorial and
reports which of them fail.

Commands are written as directives inside the markdown:
  <!-- @hutt_bash cmd="make test" -->     inline directive
  ` + "```bash @hutt_bash" + `                      block directive, one command per line

All commands of a tutorial share one persistent bash process, so
variables and the working directory carry over between steps.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// ExitError carries a process exit status for a failure that has already
// been reported to the user.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps the result of Execute to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return hutterr.GetCode(err).ExitCode()
}

// PrintError writes err to stderr unless it was already reported
func PrintError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fmt.Fprintln(os.Stderr, tui.RenderError(err.Error()))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./hutt.toml or ~/.config/hutt/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return hutterr.Wrap(err, "invalid flags").WithCode(hutterr.CodeUsage)
	})
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return hutterr.Wrap(err, "failed to load config").WithCode(hutterr.CodeConfig)
	}

	logCfg := logging.DefaultLoggerConfig()
	logCfg.Level = cfg.General.LogLevel
	logCfg.Format = cfg.General.LogFormat
	logCfg.JSONFile = cfg.General.LogJSON
	if verbose {
		logCfg.Level = "debug"
	}

	logCloser, err = logging.Configure(logCfg)
	if err != nil {
		return hutterr.Wrap(err, "failed to configure logging").WithCode(hutterr.CodeConfig)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// usageError reports a bad command line
func usageError(format string, args ...interface{}) error {
	return hutterr.Newf(format, args...).WithCode(hutterr.CodeUsage)
}
