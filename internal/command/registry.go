// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     command
// Description: Per-run registry mapping directive names to command types
// License:     Apache-2.0
// ============================================================================

package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

// Registry maps directive names and aliases to command types. It is not
// safe for concurrent registration; populate it once before a run.
type Registry struct {
	types       map[string]Type
	aliases     map[string]string
	order       []Type
	initialized []Type
	logger      *logging.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[string]Type),
		aliases: make(map[string]string),
		logger:  logging.New("registry"),
	}
}

// Register adds a command type under its own name
func (r *Registry) Register(t Type) error {
	name := t.Name()
	if name == "" {
		return hutterr.New("command type has an empty name").
			WithCode(hutterr.CodeInvalidArgument)
	}
	if r.taken(name) {
		return duplicate(name)
	}

	r.types[name] = t
	r.order = append(r.order, t)
	r.logger.Debug("Registered command type", "name", name)
	return nil
}

// RegisterAlias makes alias resolve to the already registered target.
func (r *Registry) RegisterAlias(alias, target string) error {
	if r.taken(alias) {
		return duplicate(alias)
	}
	if _, ok := r.types[target]; !ok {
		return hutterr.Newf("alias %q targets unknown command %q", alias, target).
			WithCode(hutterr.CodeUnknownCommand)
	}

	r.aliases[alias] = target
	r.logger.Debug("Registered alias", "alias", alias, "target", target)
	return nil
}

func (r *Registry) taken(name string) bool {
	_, isType := r.types[name]
	_, isAlias := r.aliases[name]
	return isType || isAlias
}

func duplicate(name string) error {
	return hutterr.Newf("command %q is already registered", name).
		WithCode(hutterr.CodeDuplicateName).
		WithDetail("name", name)
}

// Resolve looks up a directive name or alias
func (r *Registry) Resolve(name string) (Type, error) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	t, ok := r.types[name]
	if !ok {
		return nil, hutterr.Newf("unknown command %q", "@"+name).
			WithCode(hutterr.CodeUnknownCommand).
			WithDetail("name", name)
	}
	return t, nil
}

// Names returns directive names in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, t := range r.order {
		names = append(names, t.Name())
	}
	return names
}

// Aliases returns the aliases pointing at name
func (r *Registry) Aliases(name string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == name {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// InitializeAll runs every Initializer once, in registration order. It
// stops at the first failure; types initialized so far are still finalized
// by FinalizeAll.
func (r *Registry) InitializeAll(ctx context.Context, env *Environment) error {
	for _, t := range r.order {
		initer, ok := t.(Initializer)
		if !ok {
			continue
		}
		r.logger.Debug("Initializing command type", "name", t.Name())
		if err := initer.Initialize(ctx, env); err != nil {
			return hutterr.Wrap(err, fmt.Sprintf("failed to initialize @%s", t.Name())).
				WithOperation("initialize")
		}
		r.initialized = append(r.initialized, t)
	}
	return nil
}

// FinalizeAll runs Finalize on every initialized type in registration order
// and returns all failures joined.
func (r *Registry) FinalizeAll(ctx context.Context) error {
	var errs []error
	for _, t := range r.initialized {
		fin, ok := t.(Finalizer)
		if !ok {
			continue
		}
		r.logger.Debug("Finalizing command type", "name", t.Name())
		if err := fin.Finalize(ctx); err != nil {
			errs = append(errs, hutterr.Wrap(err, fmt.Sprintf("failed to finalize @%s", t.Name())).
				WithOperation("finalize"))
		}
	}
	r.initialized = nil
	return errors.Join(errs...)
}
