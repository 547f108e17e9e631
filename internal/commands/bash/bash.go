// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     bash
// Description: hutt_bash directive: shell steps run in one persistent shell
// License:     Apache-2.0
// ============================================================================

package bash

import (
	"context"
	"fmt"
	"strings"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/markdown"
	"github.com/travissluka/hutt/internal/shell"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

const (
	// Name is the directive name
	Name = "hutt_bash"
	// Alias is the alternate directive name
	Alias = "shellcmd"
	// TimeoutExitCode is what timeout(1) exits with when the limit is hit
	TimeoutExitCode = 124
)

var blockLanguages = []string{"bash", "sh"}

// Type is the hutt_bash command type. It owns the shell session shared by
// all of its commands for the duration of a run.
type Type struct {
	cfg     shell.Config
	session *shell.Session
	logger  *logging.Logger
}

// New creates the command type. cfg.Env and cfg.Dir are filled from the run
// environment at Initialize.
func New(cfg shell.Config) *Type {
	return &Type{
		cfg:    cfg,
		logger: logging.New("bash"),
	}
}

// Name returns the directive name
func (t *Type) Name() string { return Name }

// Session returns the live session, nil outside a run
func (t *Type) Session() *shell.Session { return t.session }

// ParseInline parses <!-- @hutt_bash cmd='...' [timeout=N | exit_code=N] -->
func (t *Type) ParseInline(src markdown.Source, args markdown.Args) ([]command.Command, error) {
	if err := command.CheckArgs(args, "cmd", "timeout", "exit_code"); err != nil {
		return nil, err
	}
	text, err := command.RequireArg(args, "cmd")
	if err != nil {
		return nil, err
	}
	c, err := t.newCommand(src, text, args)
	if err != nil {
		return nil, err
	}
	return []command.Command{c}, nil
}

// ParseBlock creates one command per body line, skipping blank lines and
// comments.
func (t *Type) ParseBlock(src markdown.Source, lang string, args markdown.Args, body []string) ([]command.Command, error) {
	if !isBlockLanguage(lang) {
		return nil, hutterr.Newf("expected block language %s, got %q",
			strings.Join(blockLanguages, " or "), lang).
			WithCode(hutterr.CodeInvalidArgument)
	}
	if err := command.CheckArgs(args, "timeout", "exit_code"); err != nil {
		return nil, err
	}

	var cmds []command.Command
	for i, line := range body {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := t.newCommand(src.WithLine(src.Line+i+1), line, args)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func (t *Type) newCommand(src markdown.Source, text string, args markdown.Args) (*Command, error) {
	timeout, hasTimeout, err := command.IntArg(args, "timeout")
	if err != nil {
		return nil, err
	}
	exitCode, hasExitCode, err := command.IntArg(args, "exit_code")
	if err != nil {
		return nil, err
	}
	if hasTimeout && hasExitCode {
		return nil, hutterr.New("cannot specify both timeout and exit_code").
			WithCode(hutterr.CodeInvalidArgument)
	}
	if hasTimeout && timeout <= 0 {
		return nil, hutterr.Newf("timeout must be positive, got %d", timeout).
			WithCode(hutterr.CodeInvalidArgument)
	}

	return &Command{
		Base:     command.NewBase(src),
		typ:      t,
		Cmd:      strings.TrimSpace(text),
		Timeout:  timeout,
		ExitCode: exitCode,
	}, nil
}

// Initialize starts the shell session in the run's working directory.
func (t *Type) Initialize(ctx context.Context, env *command.Environment) error {
	if t.session != nil {
		return hutterr.New("shell session already started").
			WithCode(hutterr.CodeLifecycle).
			WithOperation("bash.initialize")
	}

	cfg := t.cfg
	cfg.Dir = env.WorkDir
	cfg.Env = env.ShellVars()

	s, err := shell.Start(ctx, cfg)
	if err != nil {
		return err
	}
	t.session = s
	t.logger.Info("Shell session ready", "pid", s.Pid(), "np", s.Env()["NP"])
	return nil
}

// Finalize closes the shell session
func (t *Type) Finalize(ctx context.Context) error {
	if t.session == nil {
		return hutterr.New("shell session not started").
			WithCode(hutterr.CodeLifecycle).
			WithOperation("bash.finalize")
	}
	err := t.session.Close(ctx)
	t.session = nil
	return err
}

func isBlockLanguage(lang string) bool {
	for _, l := range blockLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Command is one shell step
type Command struct {
	command.Base
	typ      *Type
	Cmd      string
	Timeout  int // seconds, 0 when unset
	ExitCode int
}

// Text returns the line handed to the shell, wrapped in timeout(1) when a
// timeout is set.
func (c *Command) Text() string {
	if c.Timeout > 0 {
		return fmt.Sprintf("timeout %ds %s", c.Timeout, c.Cmd)
	}
	return c.Cmd
}

// Expected returns the exit code that counts as success. With a timeout the
// step passes only when the limit is hit.
func (c *Command) Expected() int {
	if c.Timeout > 0 {
		return TimeoutExitCode
	}
	return c.ExitCode
}

// Execute runs the step in the shared session
func (c *Command) Execute(ctx context.Context) error {
	s := c.typ.session
	if s == nil {
		return hutterr.New("shell session not started").
			WithCode(hutterr.CodeLifecycle).
			WithOperation("bash.execute")
	}

	outcome, err := s.Execute(ctx, c.Text(), c.Expected())
	if err != nil {
		return err
	}
	if !outcome.Success {
		return hutterr.Newf("command failed with exit code %d (expected %d), see %s for details",
			outcome.ExitCode, c.Expected(), s.Env()["LOG_FILE"]).
			WithCode(hutterr.CodeStepFailed).
			WithDetail("exit_code", outcome.ExitCode)
	}
	return nil
}

func (c *Command) String() string {
	if c.Timeout > 0 {
		return fmt.Sprintf("%s (timeout=%ds)", c.Cmd, c.Timeout)
	}
	if c.ExitCode != 0 {
		return fmt.Sprintf("%s (exit_code=%d)", c.Cmd, c.ExitCode)
	}
	return c.Cmd
}
