package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

func requireBash(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"bash", "timeout"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %v", bin, err)
		}
	}
}

func startSession(t *testing.T) (*Session, string) {
	t.Helper()
	requireBash(t)

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir
	cfg.KillTimeout = 2 * time.Second
	cfg.Cores = func() int { return 3 }
	cfg.Env = map[string]string{
		"LOG_FILE": filepath.Join(dir, "logs", "hutt.log"),
		"GREETING": "it's me",
	}

	s, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if s.state != stateClosed {
			_ = s.Close(context.Background())
		}
	})
	return s, dir
}

func TestSession_Execute(t *testing.T) {
	s, dir := startSession(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		command  string
		expected int
		want     Outcome
	}{
		{"echo", "echo hello-from-shell", 0, Outcome{Success: true}},
		{"failing command", "false", 0, Outcome{Success: false, ExitCode: 1}},
		{"expected nonzero", `bash -c "exit 4"`, 4, Outcome{Success: true}},
		{"unexpected zero", "true", 2, Outcome{Success: false, ExitCode: 0}},
		{"timeout fires", "timeout 1s sleep 5", 124, Outcome{Success: true}},
		{"injected cores", `test "$NP" = 3`, 0, Outcome{Success: true}},
		{"quoted variable", `test "$GREETING" = "it's me"`, 0, Outcome{Success: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Execute(ctx, tt.command, tt.expected)
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", tt.command, err)
			}
			if got != tt.want {
				t.Errorf("Execute(%q) = %+v, want %+v", tt.command, got, tt.want)
			}
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "hutt.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello-from-shell") {
		t.Errorf("log file missing command output: %q", data)
	}
}

func TestSession_StatePersists(t *testing.T) {
	s, dir := startSession(t)
	ctx := context.Background()

	steps := []string{
		"mkdir -p sub",
		"cd sub",
		"export STEP_VAR=kept",
		`test "$STEP_VAR" = kept`,
		`test "$PWD" = "` + filepath.Join(dir, "sub") + `"`,
	}
	for _, step := range steps {
		out, err := s.Execute(ctx, step, 0)
		if err != nil {
			t.Fatalf("Execute(%q) error = %v", step, err)
		}
		if !out.Success {
			t.Fatalf("Execute(%q) failed with exit %d", step, out.ExitCode)
		}
	}
}

func TestSession_FatalExit(t *testing.T) {
	s, _ := startSession(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, "echo $HUTT_SURELY_UNSET", 0)
	if !hutterr.HasCode(err, hutterr.CodeSessionFatal) {
		t.Fatalf("Execute() error = %v, want SESSION_FATAL", err)
	}
	if stderr := StderrOf(err); !strings.Contains(stderr, "HUTT_SURELY_UNSET") {
		t.Errorf("stderr tail = %q, want unbound variable message", stderr)
	}

	if _, err := s.Execute(ctx, "true", 0); !hutterr.HasCode(err, hutterr.CodeLifecycle) {
		t.Errorf("Execute() after fatal error = %v, want LIFECYCLE", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Errorf("Close() after fatal error = %v", err)
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s, _ := startSession(t)
	ctx := context.Background()

	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(ctx); !hutterr.HasCode(err, hutterr.CodeLifecycle) {
		t.Errorf("second Close() error = %v, want LIFECYCLE", err)
	}
	if _, err := s.Execute(ctx, "true", 0); !hutterr.HasCode(err, hutterr.CodeLifecycle) {
		t.Errorf("Execute() after Close error = %v, want LIFECYCLE", err)
	}
}

func TestSession_Cancel(t *testing.T) {
	s, _ := startSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Execute(ctx, "sleep 30", 0)
	if !hutterr.HasCode(err, hutterr.CodeSessionFatal) {
		t.Fatalf("Execute() error = %v, want SESSION_FATAL", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestStart_InvalidEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Env = map[string]string{"BAD-NAME": "x"}
	_, err := Start(context.Background(), cfg)
	if !hutterr.HasCode(err, hutterr.CodeInvalidArgument) {
		t.Errorf("Start() error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestStart_MissingShell(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shell = "/nonexistent/hutt-shell"
	_, err := Start(context.Background(), cfg)
	if !hutterr.HasCode(err, hutterr.CodeIO) {
		t.Errorf("Start() error = %v, want IO", err)
	}
}
