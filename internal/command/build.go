package command

import (
	"fmt"

	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// Build turns tokens into commands using reg. Errors carry the file and line
// of the offending directive.
func Build(tokens []markdown.Token, reg *Registry) ([]Command, error) {
	var cmds []Command

	for _, tok := range tokens {
		var (
			parsed []Command
			err    error
		)

		switch tk := tok.(type) {
		case *markdown.Heading:
			parsed = []Command{NewInfo(tk)}
		case *markdown.InlineDirective:
			parsed, err = buildDirective(reg, tk.Name, func(t Type) ([]Command, error) {
				return t.ParseInline(tk.Source, tk.Args)
			})
		case *markdown.BlockDirective:
			parsed, err = buildDirective(reg, tk.Name, func(t Type) ([]Command, error) {
				return t.ParseBlock(tk.Source, tk.Lang, tk.Args, tk.Body)
			})
		default:
			err = hutterr.Newf("unexpected token %T", tok).WithCode(hutterr.CodeInternal)
		}

		if err != nil {
			src := tok.Pos()
			return nil, hutterr.Wrap(err, src.String()).
				WithDetail("file", src.File).
				WithDetail("line", src.Line)
		}
		cmds = append(cmds, parsed...)
	}

	return cmds, nil
}

func buildDirective(reg *Registry, name string, parse func(Type) ([]Command, error)) ([]Command, error) {
	t, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	cmds, err := parse(t)
	if err != nil {
		return nil, hutterr.Wrap(err, fmt.Sprintf("@%s", name)).WithDetail("command", name)
	}
	return cmds, nil
}

// AssignIndices numbers executable commands 1..n in order and returns n.
func AssignIndices(cmds []Command) int {
	next := 0
	for _, c := range cmds {
		if !c.Executable() {
			continue
		}
		next++
		c.setIndex(next)
	}
	return next
}

// LoadFile tokenizes and builds the tutorial at path and numbers its steps.
func LoadFile(path string, reg *Registry) ([]Command, error) {
	tokens, err := markdown.TokenizeFile(path)
	if err != nil {
		return nil, err
	}
	cmds, err := Build(tokens, reg)
	if err != nil {
		return nil, err
	}
	AssignIndices(cmds)
	return cmds, nil
}
