// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     command
// Description: Command contract, command-type descriptors and the run
//              environment shared by all directives
// License:     Apache-2.0
// ============================================================================

package command

import (
	"context"
	"path/filepath"

	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// Command is one entry of a parsed tutorial. Executable commands are steps
// and receive an index from AssignIndices; informational commands keep 0.
type Command interface {
	Source() markdown.Source
	Index() int
	Executable() bool
	Execute(ctx context.Context) error
	String() string

	setIndex(index int)
}

// Base carries the source position and step index. Concrete commands embed
// it to satisfy the bookkeeping half of Command.
type Base struct {
	Src   markdown.Source
	index int
}

// NewBase creates a Base for src
func NewBase(src markdown.Source) Base {
	return Base{Src: src}
}

// Source returns where the command was declared
func (b *Base) Source() markdown.Source { return b.Src }

// Index returns the step index, 0 for informational commands
func (b *Base) Index() int { return b.index }

// Executable reports true; informational commands override it.
func (b *Base) Executable() bool { return true }

func (b *Base) setIndex(index int) { b.index = index }

// Type describes one directive: it turns inline arguments or a block body
// into commands.
type Type interface {
	Name() string
	ParseInline(src markdown.Source, args markdown.Args) ([]Command, error)
	ParseBlock(src markdown.Source, lang string, args markdown.Args, body []string) ([]Command, error)
}

// Initializer is implemented by types that need setup before the first step.
type Initializer interface {
	Initialize(ctx context.Context, env *Environment) error
}

// Finalizer is implemented by types that hold resources during a run.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// Unsupported provides ParseInline and ParseBlock that reject their mode.
// Types embed it and override the forms they accept.
type Unsupported struct{}

func (Unsupported) ParseInline(markdown.Source, markdown.Args) ([]Command, error) {
	return nil, unsupportedMode("inline")
}

func (Unsupported) ParseBlock(markdown.Source, string, markdown.Args, []string) ([]Command, error) {
	return nil, unsupportedMode("block")
}

func unsupportedMode(mode string) error {
	return hutterr.Newf("%s form is not supported", mode).
		WithCode(hutterr.CodeUnsupportedMode).
		WithDetail("mode", mode)
}

// Environment is handed to every Initializer before a run.
type Environment struct {
	TutorialFile string
	WorkDir      string
	LogFile      string
	Vars         map[string]string
}

// ShellVars returns the variables exported to shell steps. Entries in Vars
// take precedence over the computed ones.
func (e *Environment) ShellVars() map[string]string {
	vars := map[string]string{
		"LOG_FILE":      e.LogFile,
		"TUTORIAL_FILE": e.TutorialFile,
		"TUTORIAL_DIR":  filepath.Dir(e.TutorialFile),
		"WORKDIR":       e.WorkDir,
	}
	for k, v := range e.Vars {
		vars[k] = v
	}
	return vars
}
