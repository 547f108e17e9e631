package command

import (
	"context"
	"strings"

	"github.com/travissluka/hutt/internal/markdown"
)

// Info is a section heading. It is listed and printed but never counted as
// a step.
type Info struct {
	Base
	Title string
	Level int
}

// NewInfo creates an Info command from a heading token
func NewInfo(h *markdown.Heading) *Info {
	return &Info{
		Base:  NewBase(h.Source),
		Title: h.Title,
		Level: h.Level,
	}
}

func (i *Info) Executable() bool { return false }

func (i *Info) Execute(context.Context) error { return nil }

func (i *Info) String() string {
	return strings.Repeat("#", i.Level) + " " + i.Title
}
