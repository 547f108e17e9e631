// File: source.go
// Title: Source Positions
// Description: Provenance of a token within a tutorial document: file,
//              line range and the raw lines that produced it.

package markdown

import "fmt"

// Source records where a token came from. It is treated as immutable; use
// WithLine to derive a position for a single line of a block.
type Source struct {
	File    string   // Document path
	Line    int      // 1-based line of the token (the fence line for blocks)
	EndLine int      // Closing fence line for blocks, 0 otherwise
	Lines   []string // Raw first line followed by block body lines
}

// String returns a human readable position
func (s Source) String() string {
	return fmt.Sprintf("line %d in %s", s.Line, s.File)
}

// IsBlock reports whether the source spans a fenced block
func (s Source) IsBlock() bool {
	return s.EndLine > 0
}

// WithLine returns a copy of s positioned at line.
func (s Source) WithLine(line int) Source {
	lines := make([]string, len(s.Lines))
	copy(lines, s.Lines)
	return Source{
		File:    s.File,
		Line:    line,
		EndLine: s.EndLine,
		Lines:   lines,
	}
}
