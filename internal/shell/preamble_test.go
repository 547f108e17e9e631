package shell

import (
	"strings"
	"testing"
)

func TestPreamble(t *testing.T) {
	got := Preamble(map[string]string{
		"WORKDIR":  "/tmp/w",
		"LOG_FILE": "/tmp/w/hutt.log",
		"NP":       "4",
		"NOTE":     "it's",
	})

	if !strings.HasPrefix(got, "set -eu\n") {
		t.Errorf("preamble should start with strict mode:\n%s", got)
	}

	wantExports := "export LOG_FILE='/tmp/w/hutt.log'\n" +
		"export NOTE='it'\\''s'\n" +
		"export NP='4'\n" +
		"export WORKDIR='/tmp/w'\n"
	if !strings.Contains(got, wantExports) {
		t.Errorf("exports not sorted or quoted:\n%s", got)
	}

	for _, want := range []string{
		`mkdir -p "$(dirname "$LOG_FILE")"`,
		`touch "$LOG_FILE"`,
		"run_cmd() {",
		`echo "RUN_CMD_ERR exit=$code"`,
		"< /dev/null",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "''"},
		{"plain", "'plain'"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestInvocation(t *testing.T) {
	got := Invocation(`echo "a b"`, 3)
	if want := "cmd=(echo \"a b\"); run_cmd 3\n"; got != want {
		t.Errorf("Invocation() = %q, want %q", got, want)
	}
}

const cpuinfo = `processor	: 0
physical id	: 0
core id		: 0

processor	: 1
physical id	: 0
core id		: 1

processor	: 2
physical id	: 0
core id		: 0

processor	: 3
physical id	: 1
core id		: 0
`

func TestCountCores(t *testing.T) {
	if got := countCores(strings.NewReader(cpuinfo)); got != 3 {
		t.Errorf("countCores() = %d, want 3", got)
	}
	if got := countCores(strings.NewReader("processor : 0\n")); got != 0 {
		t.Errorf("countCores() without core ids = %d, want 0", got)
	}
	if got := PhysicalCores(); got < 1 {
		t.Errorf("PhysicalCores() = %d", got)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(8)
	tb.Write([]byte("hello "))
	tb.Write([]byte("world"))

	if got := tb.String(); got != "lo world" {
		t.Errorf("String() = %q, want %q", got, "lo world")
	}
	if got := tb.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}
