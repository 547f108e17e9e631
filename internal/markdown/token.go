// File: token.go
// Title: Tutorial Tokens
// Description: The three token kinds produced by the tokenizer: headings,
//              inline directives and fenced block directives.

package markdown

import (
	"fmt"
	"sort"
	"strings"
)

// Token is one of *Heading, *InlineDirective or *BlockDirective.
type Token interface {
	Pos() Source
	String() string
	isToken()
}

// Args holds directive arguments
type Args map[string]string

// Keys returns the argument names in sorted order
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the arguments as key='value' pairs in sorted order
func (a Args) String() string {
	parts := make([]string, 0, len(a))
	for _, k := range a.Keys() {
		parts = append(parts, fmt.Sprintf("%s='%s'", k, a[k]))
	}
	return strings.Join(parts, " ")
}

// Heading is a markdown section title
type Heading struct {
	Source Source
	Title  string
	Level  int
}

func (h *Heading) Pos() Source { return h.Source }
func (*Heading) isToken()      {}

func (h *Heading) String() string {
	return fmt.Sprintf("%d: %s %s", h.Source.Line, strings.Repeat("#", h.Level), h.Title)
}

// InlineDirective is a single-line <!-- @name ... --> annotation
type InlineDirective struct {
	Source Source
	Name   string
	Args   Args
}

func (d *InlineDirective) Pos() Source { return d.Source }
func (*InlineDirective) isToken()      {}

func (d *InlineDirective) String() string {
	return fmt.Sprintf("%d: <!-- @%s %s -->", d.Source.Line, d.Name, d.Args)
}

// BlockDirective is a fenced code block annotated with @name
type BlockDirective struct {
	Source Source
	Lang   string
	Name   string
	Args   Args
	Body   []string
}

func (d *BlockDirective) Pos() Source { return d.Source }
func (*BlockDirective) isToken()      {}

func (d *BlockDirective) String() string {
	return fmt.Sprintf("%d: ```%s @%s %s", d.Source.Line, d.Lang, d.Name, d.Args)
}
