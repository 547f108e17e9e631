// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     shell
// Description: Marker line protocol spoken by the run_cmd helper
// License:     Apache-2.0
// ============================================================================

package shell

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Marker is the kind of a protocol line
type Marker int

const (
	// MarkerNone is any line that is not part of the protocol
	MarkerNone Marker = iota
	MarkerStart
	MarkerEnd
	MarkerErr
)

// String returns the marker name as printed by run_cmd
func (m Marker) String() string {
	switch m {
	case MarkerStart:
		return "RUN_CMD_START"
	case MarkerEnd:
		return "RUN_CMD_END"
	case MarkerErr:
		return "RUN_CMD_ERR"
	default:
		return "NONE"
	}
}

// UnknownExitCode is reported for an ERR marker that carries no exit field.
const UnknownExitCode = -1

var reMarker = regexp.MustCompile(`^RUN_CMD_(START|END|ERR)(?:\s+exit=(\d+))?\s*$`)

// Outcome is the result of one command run through the session.
type Outcome struct {
	Success  bool
	ExitCode int
}

// ParseMarker classifies a single output line. For MarkerErr the exit code
// is returned as well.
func ParseMarker(line string) (Marker, int) {
	m := reMarker.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return MarkerNone, 0
	}

	switch m[1] {
	case "START":
		return MarkerStart, 0
	case "END":
		return MarkerEnd, 0
	default:
		if m[2] == "" {
			return MarkerErr, UnknownExitCode
		}
		code, err := strconv.Atoi(m[2])
		if err != nil {
			return MarkerErr, UnknownExitCode
		}
		return MarkerErr, code
	}
}

// ReadOutcome consumes lines from r until a terminal marker. START and
// non-marker lines are skipped; every skipped line is passed to skipped
// when it is not nil. End of stream before a terminal marker returns
// io.EOF, or io.ErrUnexpectedEOF when a START marker was already seen.
func ReadOutcome(r *bufio.Reader, skipped func(line string)) (Outcome, error) {
	started := false
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			switch marker, code := ParseMarker(line); marker {
			case MarkerEnd:
				return Outcome{Success: true, ExitCode: 0}, nil
			case MarkerErr:
				return Outcome{Success: false, ExitCode: code}, nil
			case MarkerStart:
				started = true
			default:
				if skipped != nil {
					skipped(strings.TrimRight(line, "\r\n"))
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				return Outcome{}, io.ErrUnexpectedEOF
			}
			return Outcome{}, err
		}
	}
}
