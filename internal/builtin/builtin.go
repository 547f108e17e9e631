// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     builtin
// Description: Registry of the built-in tutorial directives
// License:     Apache-2.0
// ============================================================================

package builtin

import (
	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/commands/bash"
	"github.com/travissluka/hutt/internal/commands/gdrive"
	"github.com/travissluka/hutt/internal/commands/yamlcmd"
	"github.com/travissluka/hutt/internal/shell"
	"github.com/travissluka/hutt/pkg/core/config"
)

// NewRegistry returns a fresh registry holding every built-in directive.
// Each run gets its own registry, and with it its own shell session.
func NewRegistry(cfg *config.Config) (*command.Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	reg := command.NewRegistry()

	shellCfg := shell.DefaultConfig()
	shellCfg.Shell = cfg.Run.Shell
	shellCfg.KillTimeout = cfg.Run.KillTimeout.Duration

	types := []command.Type{
		bash.New(shellCfg),
		yamlcmd.NewWrite(),
		yamlcmd.NewMerge(),
		yamlcmd.NewComment(),
		gdrive.New(gdrive.Config{
			BaseURL: cfg.Download.BaseURL,
			Timeout: cfg.Download.Timeout.Duration,
		}),
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	if err := reg.RegisterAlias(bash.Alias, bash.Name); err != nil {
		return nil, err
	}

	return reg, nil
}
