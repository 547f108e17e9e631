// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     shell
// Description: Persistent shell session driven over stdin/stdout markers
// License:     Apache-2.0
// ============================================================================

package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

// Config holds session startup parameters
type Config struct {
	Shell       string            // Shell binary, default "bash"
	Dir         string            // Working directory of the shell
	Env         map[string]string // Variables exported by the preamble
	KillTimeout time.Duration     // Grace period between SIGTERM and SIGKILL
	Cores       CoreCounter       // Physical core counter, default PhysicalCores
	TailSize    int               // Bytes of stderr kept for diagnostics
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Shell:       "bash",
		KillTimeout: 5 * time.Second,
		Cores:       PhysicalCores,
		TailSize:    DefaultTailSize,
	}
}

type state int

const (
	stateRunning state = iota
	stateDead          // exited outside run_cmd
	stateClosed
)

var reEnvName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Session is one live shell process. It is obtained from Start and must be
// used from a single goroutine.
type Session struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	input  io.WriteCloser
	output *io.PipeReader
	stdout *bufio.Reader
	stderr *tailBuffer
	vars   map[string]string

	done    chan struct{}
	waitErr error

	killOnce    sync.Once
	killTimeout time.Duration
	state       state
	logger      *logging.Logger
}

// Start spawns the shell and writes the preamble.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	def := DefaultConfig()
	if cfg.Shell == "" {
		cfg.Shell = def.Shell
	}
	if cfg.KillTimeout <= 0 {
		cfg.KillTimeout = def.KillTimeout
	}
	if cfg.Cores == nil {
		cfg.Cores = def.Cores
	}

	vars := map[string]string{"NP": strconv.Itoa(cfg.Cores())}
	for k, v := range cfg.Env {
		if !reEnvName.MatchString(k) {
			return nil, hutterr.Newf("invalid environment variable name %q", k).
				WithCode(hutterr.CodeInvalidArgument)
		}
		vars[k] = v
	}
	if _, ok := vars["LOG_FILE"]; !ok {
		vars["LOG_FILE"] = os.DevNull
	}

	logger := logging.New("shell")

	cmd := exec.Command(cfg.Shell)
	cmd.Dir = cfg.Dir
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = cfg.KillTimeout

	input, err := cmd.StdinPipe()
	if err != nil {
		return nil, hutterr.Wrap(err, "failed to open shell stdin").WithCode(hutterr.CodeIO)
	}

	// stdout goes through an io.Pipe that is closed only after Wait returns,
	// so EOF always means the process has exited.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	stderr := newTailBuffer(cfg.TailSize)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, hutterr.Wrap(err, fmt.Sprintf("failed to start %s", cfg.Shell)).
			WithCode(hutterr.CodeIO).
			WithOperation("shell.start")
	}

	s := &Session{
		cmd:         cmd,
		stdin:       bufio.NewWriter(input),
		input:       input,
		output:      pr,
		stdout:      bufio.NewReader(pr),
		stderr:      stderr,
		vars:        vars,
		done:        make(chan struct{}),
		killTimeout: cfg.KillTimeout,
		logger:      logger.With("pid", cmd.Process.Pid),
	}

	go func() {
		s.waitErr = cmd.Wait()
		pw.Close()
		close(s.done)
	}()

	s.logger.Info("Shell started", "shell", cfg.Shell, "dir", cfg.Dir, "np", vars["NP"])
	for _, k := range sortedKeys(vars) {
		s.logger.Debug("Exported variable", "name", k, "value", vars[k])
	}

	if err := s.send(ctx, Preamble(vars)); err != nil {
		s.terminate()
		<-s.done
		return nil, err
	}

	return s, nil
}

// Env returns a copy of the exported variables
func (s *Session) Env() map[string]string {
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Pid returns the shell's process id
func (s *Session) Pid() int {
	return s.cmd.Process.Pid
}

// Stderr returns the retained tail of the shell's stderr
func (s *Session) Stderr() string {
	return s.stderr.String()
}

// Execute runs command through run_cmd and waits for its marker. Cancelling
// ctx kills the shell and ends the session.
func (s *Session) Execute(ctx context.Context, command string, expected int) (Outcome, error) {
	if err := s.usable("execute"); err != nil {
		return Outcome{}, err
	}

	s.logger.Debug("Executing command", "command", command, "expected", expected)
	if err := s.send(ctx, Invocation(command, expected)); err != nil {
		return Outcome{}, err
	}

	stop := context.AfterFunc(ctx, s.terminate)
	outcome, err := ReadOutcome(s.stdout, func(line string) {
		s.logger.Debug("Shell output", "line", line)
	})
	stop()

	if err != nil {
		return Outcome{}, s.fatal(ctx, err)
	}

	s.logger.Debug("Command finished", "success", outcome.Success, "exit_code", outcome.ExitCode)
	return outcome, nil
}

// Close terminates the shell: SIGTERM to its process group, then SIGKILL if
// it has not exited within the kill timeout. Closing twice is an error.
func (s *Session) Close(ctx context.Context) error {
	if s.state == stateClosed {
		return lifecycle("close")
	}
	defer func() { s.state = stateClosed }()

	if s.state == stateDead {
		<-s.done
		return nil
	}

	// Unread output must not hold up Wait.
	s.output.Close()
	s.input.Close()
	s.signal(syscall.SIGTERM)

	timer := time.NewTimer(s.killTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		s.logger.Warn("Shell did not exit, killing", "timeout", s.killTimeout)
		s.signal(syscall.SIGKILL)
		<-s.done
	case <-ctx.Done():
		s.signal(syscall.SIGKILL)
		<-s.done
		return ctx.Err()
	}

	s.logger.Info("Shell closed")
	return nil
}

func (s *Session) usable(op string) error {
	switch s.state {
	case stateClosed:
		return lifecycle(op)
	case stateDead:
		return hutterr.Newf("cannot %s: shell has exited", op).
			WithCode(hutterr.CodeLifecycle).
			WithOperation("shell." + op)
	}
	return nil
}

func (s *Session) send(ctx context.Context, text string) error {
	if _, err := s.stdin.WriteString(text); err != nil {
		return s.fatal(ctx, err)
	}
	if err := s.stdin.Flush(); err != nil {
		return s.fatal(ctx, err)
	}
	return nil
}

// fatal records that the shell is gone and builds the session-fatal error
// carrying its stderr.
func (s *Session) fatal(ctx context.Context, cause error) error {
	s.state = stateDead
	<-s.done

	if ctxErr := ctx.Err(); ctxErr != nil {
		return hutterr.Wrap(ctxErr, "shell session interrupted").
			WithCode(hutterr.CodeSessionFatal).
			WithDetail("stderr", s.stderr.String())
	}

	exitCode := -1
	if s.cmd.ProcessState != nil {
		exitCode = s.cmd.ProcessState.ExitCode()
	}
	s.logger.Error("Shell exited outside run_cmd", "exit_code", exitCode, "wait", s.waitErr, "error", cause)

	return hutterr.Wrap(cause, "shell exited unexpectedly").
		WithCode(hutterr.CodeSessionFatal).
		WithDetail("exit_code", exitCode).
		WithDetail("stderr", s.stderr.String())
}

func (s *Session) terminate() {
	s.killOnce.Do(func() {
		s.signal(syscall.SIGKILL)
	})
}

func (s *Session) signal(sig syscall.Signal) {
	if err := syscall.Kill(-s.cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("Failed to signal shell", "signal", sig, "error", err)
	}
}

func lifecycle(op string) error {
	return hutterr.Newf("cannot %s: shell session is closed", op).
		WithCode(hutterr.CodeLifecycle).
		WithOperation("shell." + op)
}

// StderrOf extracts the stderr tail attached to a session-fatal error.
func StderrOf(err error) string {
	var he *hutterr.Error
	if !errors.As(err, &he) {
		return ""
	}
	v, _ := he.Detail("stderr")
	s, _ := v.(string)
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
