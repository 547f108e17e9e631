package engine

import (
	"sort"
	"strconv"
	"strings"

	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// Mode selects which commands a run executes
type Mode int

const (
	ModeAll Mode = iota
	ModeList
	ModeSubset
	ModeResume
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeList:
		return "list"
	case ModeSubset:
		return "subset"
	case ModeResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Options are the per-run selection flags
type Options struct {
	List         bool
	Steps        string // e.g. "1,3,5-7"
	Resume       bool
	IgnoreErrors bool
}

// Mode validates the flags and returns the selected mode. Resume is
// recognized but rejected.
func (o Options) Mode() (Mode, error) {
	var selected []string
	if o.Resume {
		selected = append(selected, "resume")
	}
	if o.List {
		selected = append(selected, "list")
	}
	if o.Steps != "" {
		selected = append(selected, "steps")
	}
	if len(selected) > 1 {
		return ModeAll, hutterr.Newf("options %s are mutually exclusive", strings.Join(selected, ", ")).
			WithCode(hutterr.CodeUsage)
	}

	switch {
	case o.Resume:
		return ModeResume, hutterr.New("resume is not implemented").
			WithCode(hutterr.CodeNotImplemented)
	case o.List:
		return ModeList, nil
	case o.Steps != "":
		return ModeSubset, nil
	default:
		return ModeAll, nil
	}
}

// Validate checks opts against a document with total steps and returns the
// mode and, in subset mode, the parsed selection.
func Validate(opts Options, total int) (Mode, Selection, error) {
	mode, err := opts.Mode()
	if err != nil || mode != ModeSubset {
		return mode, nil, err
	}
	sel, err := ParseSelection(opts.Steps, total)
	if err != nil {
		return mode, nil, err
	}
	return mode, sel, nil
}

// Selection is a set of step indices
type Selection map[int]struct{}

// Contains reports whether index is selected
func (s Selection) Contains(index int) bool {
	_, ok := s[index]
	return ok
}

// Indices returns the selected indices in ascending order
func (s Selection) Indices() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ParseSelection parses a comma separated list of indices and inclusive
// ranges. Every index must lie in [1, maxIndex].
func ParseSelection(spec string, maxIndex int) (Selection, error) {
	sel := make(Selection)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, selectionError(spec, "empty element")
		}

		lo, hi := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, hi = strings.TrimSpace(a), strings.TrimSpace(b)
		}
		first, err1 := strconv.Atoi(lo)
		last, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, selectionError(spec, "invalid step "+strconv.Quote(part))
		}
		if first > last {
			return nil, selectionError(spec, "descending range "+strconv.Quote(part))
		}
		if first < 1 || last > maxIndex {
			return nil, selectionError(spec, "step out of range 1-"+strconv.Itoa(maxIndex)).
				WithDetail("max", maxIndex)
		}
		for i := first; i <= last; i++ {
			sel[i] = struct{}{}
		}
	}
	return sel, nil
}

func selectionError(spec, reason string) *hutterr.Error {
	return hutterr.Newf("invalid step selection %q: %s", spec, reason).
		WithCode(hutterr.CodeUsage)
}
