package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/engine"
)

const banner = `
 ,--.  ,--.,--. ,--.,--------.,--------.
 |  '--'  ||  | |  |'--.  .--''--.  .--'
 |  .--.  ||  | |  |   |  |      |  |
 |  |  |  |'  '-'  '   |  |      |  |
 ` + "`--'  `--' `-----'    `--'      `--'" + `
 Helpful Utility for Testing Tutorials (HUTT)
`

// Banner returns the start-up banner
func Banner() string {
	return BannerStyle.Render(banner)
}

// Console prints run progress to a terminal. It implements engine.Reporter.
type Console struct {
	out io.Writer
}

var _ engine.Reporter = (*Console)(nil)

// NewConsole creates a console reporter writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) RunStarted(info engine.RunInfo) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, RenderTitle(fmt.Sprintf("Running tutorial at %s (%d commands)", info.Tutorial, info.Steps)))
}

func (c *Console) Listed(cmd command.Command) {
	src := cmd.Source()
	if !cmd.Executable() {
		fmt.Fprintf(c.out, "%s %s\n", IndexStyle.Render(fmt.Sprintf("%9s", fmt.Sprintf("L%d", src.Line))), HeadingStyle.Render(cmd.String()))
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", IndexStyle.Render(fmt.Sprintf("%4d %4s", cmd.Index(), fmt.Sprintf("L%d", src.Line))), cmd.String())
}

func (c *Console) Heading(h *command.Info) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, HeadingStyle.Render(h.String()))
}

func (c *Console) StepStarted(cmd command.Command, total int) {
	width := len(fmt.Sprint(total))
	fmt.Fprintf(c.out, "%s %s ", IndexStyle.Render(fmt.Sprintf("[%*d/%d]", width, cmd.Index(), total)), cmd.String())
}

func (c *Console) StepFinished(cmd command.Command, result engine.StepResult, err error) {
	elapsed := MutedStyle.Render(fmt.Sprintf("(%s)", formatDuration(result.Duration)))
	if err == nil {
		fmt.Fprintf(c.out, "%s %s\n", PassStyle.Render("PASS"), elapsed)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", FailStyle.Render("FAIL"), elapsed)
	fmt.Fprintf(c.out, "  %s\n", RenderError(fmt.Sprintf("step %d (%s): %v", cmd.Index(), cmd.Source(), err)))
}

func (c *Console) RunFinished(s *engine.Summary) {
	fmt.Fprintln(c.out)
	switch {
	case s.Fatal != nil:
		fmt.Fprintln(c.out, SummaryErrorStyle.Render(fmt.Sprintf(
			"Run aborted after %d steps (%s)", s.Run, formatDuration(s.Duration))))
	case s.Failed == 0:
		fmt.Fprintln(c.out, SummaryOKStyle.Render(fmt.Sprintf(
			"All %d steps ran successfully (%s)", s.Run, formatDuration(s.Duration))))
	default:
		fmt.Fprintln(c.out, SummaryErrorStyle.Render(fmt.Sprintf(
			"%d of %d steps failed (%s)", s.Failed, s.Run, formatDuration(s.Duration))))
	}
}

// Stderr renders the stderr tail of a shell that died outside a step.
func Stderr(tail string) string {
	tail = strings.TrimRight(tail, "\n")
	if tail == "" {
		tail = "(no output on stderr)"
	}
	return StderrBoxStyle.Render(tail)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
