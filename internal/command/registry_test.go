package command

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// echoType accepts both forms and records lifecycle calls.
type echoType struct {
	name     string
	calls    *[]string
	initErr  error
	finalErr error
}

type echoCmd struct {
	Base
	text string
}

func (c *echoCmd) Execute(context.Context) error { return nil }
func (c *echoCmd) String() string                { return c.text }

func (e *echoType) Name() string { return e.name }

func (e *echoType) ParseInline(src markdown.Source, args markdown.Args) ([]Command, error) {
	if err := CheckArgs(args, "text"); err != nil {
		return nil, err
	}
	text, err := RequireArg(args, "text")
	if err != nil {
		return nil, err
	}
	return []Command{&echoCmd{Base: NewBase(src), text: text}}, nil
}

func (e *echoType) ParseBlock(src markdown.Source, _ string, _ markdown.Args, body []string) ([]Command, error) {
	var out []Command
	for i, line := range body {
		out = append(out, &echoCmd{Base: NewBase(src.WithLine(src.Line + i + 1)), text: line})
	}
	return out, nil
}

func (e *echoType) Initialize(context.Context, *Environment) error {
	*e.calls = append(*e.calls, "init:"+e.name)
	return e.initErr
}

func (e *echoType) Finalize(context.Context) error {
	*e.calls = append(*e.calls, "final:"+e.name)
	return e.finalErr
}

// inlineOnly embeds Unsupported and leaves ParseBlock alone.
type inlineOnly struct {
	Unsupported
}

func (inlineOnly) Name() string { return "inline_only" }

func (inlineOnly) ParseInline(src markdown.Source, _ markdown.Args) ([]Command, error) {
	return []Command{&echoCmd{Base: NewBase(src)}}, nil
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	var calls []string
	reg := NewRegistry()

	if err := reg.Register(&echoType{name: "echo", calls: &calls}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(&echoType{name: "echo", calls: &calls}); !hutterr.HasCode(err, hutterr.CodeDuplicateName) {
		t.Errorf("duplicate Register() error = %v, want DUPLICATE_NAME", err)
	}
	if err := reg.RegisterAlias("say", "echo"); err != nil {
		t.Fatalf("RegisterAlias() error = %v", err)
	}
	if err := reg.RegisterAlias("say", "echo"); !hutterr.HasCode(err, hutterr.CodeDuplicateName) {
		t.Errorf("duplicate alias error = %v, want DUPLICATE_NAME", err)
	}
	if err := reg.RegisterAlias("echo", "echo"); !hutterr.HasCode(err, hutterr.CodeDuplicateName) {
		t.Errorf("alias shadowing a type error = %v, want DUPLICATE_NAME", err)
	}
	if err := reg.RegisterAlias("x", "missing"); !hutterr.HasCode(err, hutterr.CodeUnknownCommand) {
		t.Errorf("alias to unknown error = %v, want UNKNOWN_COMMAND", err)
	}
	if err := reg.Register(&echoType{name: "say", calls: &calls}); !hutterr.HasCode(err, hutterr.CodeDuplicateName) {
		t.Errorf("type shadowing an alias error = %v, want DUPLICATE_NAME", err)
	}

	got, err := reg.Resolve("say")
	if err != nil || got.Name() != "echo" {
		t.Errorf("Resolve(say) = %v, %v; want echo", got, err)
	}

	_, err = reg.Resolve("nonexistent")
	if !hutterr.HasCode(err, hutterr.CodeUnknownCommand) {
		t.Fatalf("Resolve(nonexistent) error = %v", err)
	}
	if !strings.Contains(err.Error(), `"@nonexistent"`) {
		t.Errorf("error %q should quote the directive", err.Error())
	}

	if names := reg.Names(); !reflect.DeepEqual(names, []string{"echo"}) {
		t.Errorf("Names() = %v", names)
	}
	if aliases := reg.Aliases("echo"); !reflect.DeepEqual(aliases, []string{"say"}) {
		t.Errorf("Aliases() = %v", aliases)
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	_ = reg.Register(&echoType{name: "a", calls: &calls})
	_ = reg.Register(inlineOnly{})
	_ = reg.Register(&echoType{name: "b", calls: &calls, finalErr: errors.New("boom")})
	_ = reg.RegisterAlias("aa", "a")

	ctx := context.Background()
	if err := reg.InitializeAll(ctx, &Environment{}); err != nil {
		t.Fatalf("InitializeAll() error = %v", err)
	}
	err := reg.FinalizeAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("FinalizeAll() error = %v, want boom", err)
	}

	want := []string{"init:a", "init:b", "final:a", "final:b"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRegistry_InitializeFailureFinalizesStarted(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	_ = reg.Register(&echoType{name: "a", calls: &calls})
	_ = reg.Register(&echoType{name: "b", calls: &calls, initErr: errors.New("no shell")})
	_ = reg.Register(&echoType{name: "c", calls: &calls})

	ctx := context.Background()
	if err := reg.InitializeAll(ctx, &Environment{}); err == nil {
		t.Fatal("InitializeAll() expected error")
	}
	if err := reg.FinalizeAll(ctx); err != nil {
		t.Errorf("FinalizeAll() error = %v", err)
	}

	want := []string{"init:a", "init:b", "final:a"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestBuild(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	_ = reg.Register(&echoType{name: "echo", calls: &calls})
	_ = reg.Register(inlineOnly{})

	doc := []string{
		"# Intro",
		"<!-- @echo text=one -->",
		"## Block",
		"```bash @echo",
		"two",
		"three",
		"```",
		"<!-- @inline_only -->",
	}
	tokens, err := markdown.TokenizeLines("doc.md", doc)
	if err != nil {
		t.Fatalf("TokenizeLines() error = %v", err)
	}

	cmds, err := Build(tokens, reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(cmds) != 6 {
		t.Fatalf("Build() returned %d commands, want 6", len(cmds))
	}

	n := AssignIndices(cmds)
	if n != 4 {
		t.Errorf("AssignIndices() = %d, want 4", n)
	}

	wantIdx := []int{0, 1, 0, 2, 3, 4}
	wantLine := []int{1, 2, 3, 5, 6, 8}
	for i, c := range cmds {
		if c.Index() != wantIdx[i] {
			t.Errorf("cmds[%d].Index() = %d, want %d", i, c.Index(), wantIdx[i])
		}
		if c.Source().Line != wantLine[i] {
			t.Errorf("cmds[%d] line = %d, want %d", i, c.Source().Line, wantLine[i])
		}
	}
	if s := cmds[0].String(); s != "# Intro" {
		t.Errorf("heading String() = %q", s)
	}
}

func TestBuild_Errors(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	_ = reg.Register(&echoType{name: "echo", calls: &calls})
	_ = reg.Register(inlineOnly{})

	tests := []struct {
		name     string
		doc      []string
		wantCode hutterr.Code
		wantLine int
	}{
		{
			name:     "unknown directive",
			doc:      []string{"text", "<!-- @nonexistent -->"},
			wantCode: hutterr.CodeUnknownCommand,
			wantLine: 2,
		},
		{
			name:     "unsupported block form",
			doc:      []string{"```bash @inline_only", "x", "```"},
			wantCode: hutterr.CodeUnsupportedMode,
			wantLine: 1,
		},
		{
			name:     "unknown argument",
			doc:      []string{"", "", "<!-- @echo text=a colour=red -->"},
			wantCode: hutterr.CodeInvalidArgument,
			wantLine: 3,
		},
		{
			name:     "missing argument",
			doc:      []string{"<!-- @echo -->"},
			wantCode: hutterr.CodeInvalidArgument,
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := markdown.TokenizeLines("doc.md", tt.doc)
			if err != nil {
				t.Fatalf("TokenizeLines() error = %v", err)
			}
			_, err = Build(tokens, reg)
			if !hutterr.HasCode(err, tt.wantCode) {
				t.Fatalf("Build() error = %v, want code %s", err, tt.wantCode)
			}
			var he *hutterr.Error
			if !errors.As(err, &he) {
				t.Fatalf("error type = %T", err)
			}
			if line, _ := he.Detail("line"); line != tt.wantLine {
				t.Errorf("line detail = %v, want %d", line, tt.wantLine)
			}
			if !strings.Contains(err.Error(), "doc.md") {
				t.Errorf("error %q should name the file", err.Error())
			}
		})
	}
}

func TestIntArg(t *testing.T) {
	v, ok, err := IntArg(markdown.Args{"timeout": "5"}, "timeout")
	if err != nil || !ok || v != 5 {
		t.Errorf("IntArg() = %d, %v, %v", v, ok, err)
	}
	if _, ok, err := IntArg(markdown.Args{}, "timeout"); ok || err != nil {
		t.Errorf("absent IntArg() = %v, %v", ok, err)
	}
	if _, _, err := IntArg(markdown.Args{"timeout": "soon"}, "timeout"); !hutterr.HasCode(err, hutterr.CodeInvalidArgument) {
		t.Errorf("bad IntArg() error = %v", err)
	}
}

func TestEnvironment_ShellVars(t *testing.T) {
	env := &Environment{
		TutorialFile: "/docs/tut/README.md",
		WorkDir:      "/tmp/work",
		LogFile:      "/tmp/work/hutt.log",
		Vars:         map[string]string{"EXTRA": "1", "WORKDIR": "/override"},
	}
	vars := env.ShellVars()
	want := map[string]string{
		"LOG_FILE":      "/tmp/work/hutt.log",
		"TUTORIAL_FILE": "/docs/tut/README.md",
		"TUTORIAL_DIR":  "/docs/tut",
		"WORKDIR":       "/override",
		"EXTRA":         "1",
	}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("ShellVars() = %v, want %v", vars, want)
	}
}
