// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     engine
// Description: Sequential execution of tutorial steps
// License:     Apache-2.0
// ============================================================================

package engine

import (
	"context"
	"time"

	"github.com/travissluka/hutt/internal/command"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

// Status of a finished step
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// StepResult describes one executed step
type StepResult struct {
	Index    int
	File     string
	Line     int
	Command  string
	Status   Status
	Error    string
	Duration time.Duration
}

// RunInfo describes a run as it starts
type RunInfo struct {
	Tutorial string
	WorkDir  string
	Mode     Mode
	Steps    int
	Started  time.Time
}

// Summary aggregates a run
type Summary struct {
	Mode     Mode
	Total    int // executable steps in the document
	Run      int // steps attempted
	Failed   int
	Duration time.Duration
	Fatal    error // session-fatal error that ended the run early
}

// Success reports whether no step failed
func (s *Summary) Success() bool {
	return s.Failed == 0 && s.Fatal == nil
}

// ExitCode is 0 when every attempted step passed, 1 otherwise, including
// runs that continued past failures with IgnoreErrors.
func (s *Summary) ExitCode() int {
	if s.Success() {
		return 0
	}
	return 1
}

// Reporter receives progress for display
type Reporter interface {
	RunStarted(info RunInfo)
	Listed(c command.Command)
	Heading(c *command.Info)
	StepStarted(c command.Command, total int)
	StepFinished(c command.Command, result StepResult, err error)
	RunFinished(s *Summary)
}

// Recorder persists runs. Failures to record are logged, never fatal.
type Recorder interface {
	BeginRun(ctx context.Context, info RunInfo) (string, error)
	RecordStep(ctx context.Context, runID string, result StepResult) error
	EndRun(ctx context.Context, runID string, s *Summary) error
}

// Config holds engine collaborators
type Config struct {
	Registry *command.Registry
	Reporter Reporter // optional
	Recorder Recorder // optional
}

// Engine runs parsed tutorials
type Engine struct {
	registry *command.Registry
	reporter Reporter
	recorder Recorder
	logger   *logging.Logger
}

// New creates an engine
func New(cfg Config) *Engine {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Engine{
		registry: cfg.Registry,
		reporter: reporter,
		recorder: cfg.Recorder,
		logger:   logging.New("engine"),
	}
}

// Run executes cmds according to opts. Selection errors are returned before
// any command type is initialized. An initialization failure or a
// session-fatal step error ends the run and is returned along with the
// summary.
func (e *Engine) Run(ctx context.Context, cmds []command.Command, env *command.Environment, opts Options) (*Summary, error) {
	total := command.AssignIndices(cmds)

	mode, sel, err := Validate(opts, total)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Mode: mode, Total: total}
	info := RunInfo{
		Tutorial: env.TutorialFile,
		WorkDir:  env.WorkDir,
		Mode:     mode,
		Steps:    total,
		Started:  time.Now(),
	}

	if mode == ModeList {
		for _, c := range cmds {
			e.reporter.Listed(c)
		}
		return summary, nil
	}

	if mode == ModeSubset {
		info.Steps = len(sel)
	}

	e.reporter.RunStarted(info)
	runID := e.beginRun(ctx, info)

	start := time.Now()
	if err := e.registry.InitializeAll(ctx, env); err != nil {
		e.finalize(ctx)
		summary.Fatal = err
		summary.Duration = time.Since(start)
		e.endRun(ctx, runID, summary)
		e.reporter.RunFinished(summary)
		e.logger.Error("Initialization failed", "error", err)
		return summary, err
	}

	for _, c := range cmds {
		if !c.Executable() {
			if h, ok := c.(*command.Info); ok && mode == ModeAll {
				e.reporter.Heading(h)
			}
			continue
		}
		if sel != nil && !sel.Contains(c.Index()) {
			continue
		}

		stop := e.runStep(ctx, runID, c, total, opts, summary)
		if stop {
			break
		}
	}

	e.finalize(ctx)
	summary.Duration = time.Since(start)

	e.endRun(ctx, runID, summary)
	e.reporter.RunFinished(summary)
	e.logger.Info("Run finished", "run", summary.Run, "failed", summary.Failed, "duration", summary.Duration)

	return summary, summary.Fatal
}

// runStep executes one command and reports whether the loop must stop.
func (e *Engine) runStep(ctx context.Context, runID string, c command.Command, total int, opts Options, summary *Summary) bool {
	e.reporter.StepStarted(c, total)
	src := c.Source()

	started := time.Now()
	err := c.Execute(ctx)
	result := StepResult{
		Index:    c.Index(),
		File:     src.File,
		Line:     src.Line,
		Command:  c.String(),
		Status:   StatusPassed,
		Duration: time.Since(started),
	}
	summary.Run++

	if err != nil {
		summary.Failed++
		result.Status = StatusFailed
		result.Error = err.Error()
		e.logger.Debug("Step failed", "index", c.Index(), "line", src.Line, "error", err)
	}

	e.reporter.StepFinished(c, result, err)
	e.recordStep(ctx, runID, result)

	if err == nil {
		return false
	}
	if hutterr.HasCode(err, hutterr.CodeSessionFatal) {
		summary.Fatal = err
		return true
	}
	if ctx.Err() != nil {
		return true
	}
	return !opts.IgnoreErrors
}

func (e *Engine) finalize(ctx context.Context) {
	// Finalization must run even when ctx was cancelled.
	if err := e.registry.FinalizeAll(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("Finalization failed", "error", err)
	}
}

func (e *Engine) beginRun(ctx context.Context, info RunInfo) string {
	if e.recorder == nil {
		return ""
	}
	id, err := e.recorder.BeginRun(ctx, info)
	if err != nil {
		e.logger.Warn("Failed to record run", "error", err)
		return ""
	}
	return id
}

func (e *Engine) recordStep(ctx context.Context, runID string, result StepResult) {
	if e.recorder == nil || runID == "" {
		return
	}
	if err := e.recorder.RecordStep(ctx, runID, result); err != nil {
		e.logger.Warn("Failed to record step", "index", result.Index, "error", err)
	}
}

func (e *Engine) endRun(ctx context.Context, runID string, s *Summary) {
	if e.recorder == nil || runID == "" {
		return
	}
	if err := e.recorder.EndRun(context.WithoutCancel(ctx), runID, s); err != nil {
		e.logger.Warn("Failed to record run result", "error", err)
	}
}

type nopReporter struct{}

func (nopReporter) RunStarted(RunInfo)                              {}
func (nopReporter) Listed(command.Command)                          {}
func (nopReporter) Heading(*command.Info)                           {}
func (nopReporter) StepStarted(command.Command, int)                {}
func (nopReporter) StepFinished(command.Command, StepResult, error) {}
func (nopReporter) RunFinished(*Summary)                            {}
