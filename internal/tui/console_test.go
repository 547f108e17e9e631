package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/engine"
	"github.com/travissluka/hutt/internal/markdown"
)

type stubCmd struct {
	command.Base
	text string
}

func (s *stubCmd) Execute(context.Context) error { return nil }
func (s *stubCmd) String() string                { return s.text }

func TestConsole_Run(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	heading := command.NewInfo(&markdown.Heading{Source: markdown.Source{File: "doc.md", Line: 1}, Title: "Build", Level: 2})
	step := &stubCmd{Base: command.NewBase(markdown.Source{File: "doc.md", Line: 3}), text: "make -j4"}
	command.AssignIndices([]command.Command{heading, step})

	c.RunStarted(engine.RunInfo{Tutorial: "doc.md", Steps: 1})
	c.Heading(heading)
	c.StepStarted(step, 1)
	c.StepFinished(step, engine.StepResult{Duration: 1500 * time.Millisecond}, nil)
	c.StepStarted(step, 1)
	c.StepFinished(step, engine.StepResult{}, errors.New("command failed with exit code 2"))
	c.RunFinished(&engine.Summary{Run: 2, Failed: 1})

	out := buf.String()
	for _, want := range []string{
		"Running tutorial at doc.md (1 commands)",
		"## Build",
		"[1/1] make -j4 PASS (1.5s)",
		"FAIL",
		"step 1 (line 3 in doc.md): command failed with exit code 2",
		"1 of 2 steps failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_Summary(t *testing.T) {
	tests := []struct {
		name    string
		summary engine.Summary
		want    string
	}{
		{"success", engine.Summary{Run: 3}, "All 3 steps ran successfully"},
		{"empty", engine.Summary{}, "All 0 steps ran successfully"},
		{"fatal", engine.Summary{Run: 2, Failed: 1, Fatal: errors.New("dead")}, "Run aborted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).RunFinished(&tt.summary)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("RunFinished() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConsole_Listed(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	heading := command.NewInfo(&markdown.Heading{Source: markdown.Source{Line: 1}, Title: "Intro", Level: 1})
	step := &stubCmd{Base: command.NewBase(markdown.Source{Line: 12}), text: "ls"}
	command.AssignIndices([]command.Command{heading, step})

	c.Listed(heading)
	c.Listed(step)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "L1") || !strings.Contains(lines[0], "# Intro") {
		t.Errorf("heading line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "1  L12 ls") {
		t.Errorf("step line = %q", lines[1])
	}
}

func TestStderr(t *testing.T) {
	if got := Stderr(""); !strings.Contains(got, "no output") {
		t.Errorf("Stderr(\"\") = %q", got)
	}
	if got := Stderr("bash: X: unbound variable\n"); !strings.Contains(got, "unbound variable") {
		t.Errorf("Stderr() = %q", got)
	}
}
