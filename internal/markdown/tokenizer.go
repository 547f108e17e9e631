// File: tokenizer.go
// Title: Tutorial Tokenizer
// Description: Line oriented scanner turning a markdown document into
//              headings and directives with exact line numbers.

package markdown

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

var (
	reHeading    = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)
	reInline     = regexp.MustCompile(`^<!--\s*@(\w+)(?:\s+(.*?))?\s*-->$`)
	reBlockStart = regexp.MustCompile("^```(\\w+)\\s+@(\\w+)(?:\\s+(.*))?$")
	reBlockEnd   = regexp.MustCompile("^```$")
	reArg        = regexp.MustCompile(`(\w+)=("[^"]*"|'[^']*'|\S+)`)
)

// maxLineSize bounds a single document line
const maxLineSize = 1024 * 1024

// TokenizeFile reads and tokenizes the document at path.
func TokenizeFile(path string) ([]Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, hutterr.Wrap(err, "failed to open tutorial").
			WithCode(hutterr.CodeIO).
			WithDetail("file", path)
	}
	defer f.Close()

	return Tokenize(path, f)
}

// Tokenize reads all lines from r and tokenizes them.
func Tokenize(file string, r io.Reader) ([]Token, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, hutterr.Wrap(err, "failed to read tutorial").
			WithCode(hutterr.CodeIO).
			WithDetail("file", file)
	}

	return TokenizeLines(file, lines)
}

// TokenizeLines turns document lines into tokens. Lines are numbered from 1.
func TokenizeLines(file string, lines []string) ([]Token, error) {
	var (
		tokens []Token
		open   *BlockDirective
		indent string
	)

	for i, raw := range lines {
		lineNum := i + 1
		line := strings.TrimSpace(raw)
		src := Source{File: file, Line: lineNum, Lines: []string{line}}

		// Headings are matched before block quotes are removed, so a quoted
		// block may carry "> # comment" lines.
		if m := reHeading.FindStringSubmatch(line); m != nil {
			if open != nil {
				return nil, unterminated(open)
			}
			tokens = append(tokens, &Heading{
				Source: src,
				Title:  m[2],
				Level:  len(m[1]),
			})
			continue
		}

		line = strings.TrimSpace(strings.TrimLeft(line, ">"))
		src.Lines[0] = line

		if m := reInline.FindStringSubmatch(line); m != nil {
			if open != nil {
				return nil, unterminated(open)
			}
			tokens = append(tokens, &InlineDirective{
				Source: src,
				Name:   m[1],
				Args:   ParseArgs(m[2]),
			})
			continue
		}

		if m := reBlockStart.FindStringSubmatch(line); m != nil {
			if open != nil {
				return nil, unterminated(open)
			}
			open = &BlockDirective{
				Source: src,
				Lang:   m[1],
				Name:   m[2],
				Args:   ParseArgs(m[3]),
			}
			fence := unquoteLine(raw)
			indent = fence[:len(fence)-len(strings.TrimLeft(fence, " \t"))]
			continue
		}

		if open == nil {
			continue
		}

		if reBlockEnd.MatchString(line) {
			open.Source.EndLine = lineNum
			tokens = append(tokens, open)
			open = nil
			continue
		}

		body := strings.TrimPrefix(unquoteLine(raw), indent)
		open.Body = append(open.Body, body)
		open.Source.Lines = append(open.Source.Lines, body)
	}

	if open != nil {
		return nil, unterminated(open)
	}

	return tokens, nil
}

// unquoteLine removes block-quote markers and the space after them. Any
// other indentation is kept.
func unquoteLine(raw string) string {
	line := strings.TrimRight(raw, "\r")
	rest := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(rest, ">") {
		return line
	}
	return strings.TrimPrefix(strings.TrimLeft(rest, ">"), " ")
}

// ParseArgs parses whitespace separated key=value pairs. Values may be
// wrapped in single or double quotes. Fragments that are not key=value are
// ignored.
func ParseArgs(s string) Args {
	args := make(Args)
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		args[m[1]] = unquote(m[2])
	}
	return args
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func unterminated(b *BlockDirective) error {
	return hutterr.Newf("command block started on line %d but never ended", b.Source.Line).
		WithCode(hutterr.CodeUnterminatedBlock).
		WithDetail("file", b.Source.File).
		WithDetail("line", b.Source.Line)
}
