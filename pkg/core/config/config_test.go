package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{5 * time.Minute}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "5m0s" {
		t.Errorf("MarshalText() = %v, want 5m0s", string(result))
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.General.LogLevel != "warn" {
		t.Errorf("General.LogLevel = %v, want warn", cfg.General.LogLevel)
	}
	if cfg.General.LogFormat != "text" {
		t.Errorf("General.LogFormat = %v, want text", cfg.General.LogFormat)
	}
	if cfg.Run.WorkDir != "." {
		t.Errorf("Run.WorkDir = %v, want .", cfg.Run.WorkDir)
	}
	if cfg.Run.LogFile != "hutt.log" {
		t.Errorf("Run.LogFile = %v, want hutt.log", cfg.Run.LogFile)
	}
	if cfg.Run.Shell != "bash" {
		t.Errorf("Run.Shell = %v, want bash", cfg.Run.Shell)
	}
	if cfg.Run.KillTimeout.Duration != 5*time.Second {
		t.Errorf("Run.KillTimeout = %v, want 5s", cfg.Run.KillTimeout.Duration)
	}
	if cfg.Run.Env == nil {
		t.Error("Run.Env should be initialized")
	}
	if cfg.History.Path != "" {
		t.Errorf("History.Path = %v, want empty (disabled)", cfg.History.Path)
	}
	if cfg.Download.BaseURL != "https://drive.google.com/uc" {
		t.Errorf("Download.BaseURL = %v", cfg.Download.BaseURL)
	}
	if cfg.Download.Timeout.Duration != 10*time.Minute {
		t.Errorf("Download.Timeout = %v, want 10m", cfg.Download.Timeout.Duration)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/hutt.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hutt.toml")

	configContent := `
[general]
log_level = "debug"

[run]
workdir = "/tmp/tutorial"
ignore_errors = true
kill_timeout = "2s"

[run.env]
SOCA_BUILD = "/opt/soca"

[history]
path = "$HUTT_TEST_HOME/history.db"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv("HUTT_TEST_HOME", "/var/lib/hutt")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.LogLevel != "debug" {
		t.Errorf("General.LogLevel = %v, want debug", cfg.General.LogLevel)
	}
	if cfg.Run.WorkDir != "/tmp/tutorial" {
		t.Errorf("Run.WorkDir = %v, want /tmp/tutorial", cfg.Run.WorkDir)
	}
	if !cfg.Run.IgnoreErrors {
		t.Error("Run.IgnoreErrors should be true")
	}
	if cfg.Run.KillTimeout.Duration != 2*time.Second {
		t.Errorf("Run.KillTimeout = %v, want 2s", cfg.Run.KillTimeout.Duration)
	}
	if cfg.Run.Env["SOCA_BUILD"] != "/opt/soca" {
		t.Errorf("Run.Env[SOCA_BUILD] = %v", cfg.Run.Env["SOCA_BUILD"])
	}
	if cfg.History.Path != "/var/lib/hutt/history.db" {
		t.Errorf("History.Path = %v, want expanded path", cfg.History.Path)
	}
	// Defaults still apply to omitted keys
	if cfg.Run.Shell != "bash" {
		t.Errorf("Run.Shell = %v, want bash", cfg.Run.Shell)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hutt.toml")
	if err := os.WriteFile(configPath, []byte("[run\nworkdir ="), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected parse error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(configPath, []byte("[run]\nshell = \"sh\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv(EnvVar, configPath)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Run.Shell != "sh" {
		t.Errorf("Run.Shell = %v, want sh", cfg.Run.Shell)
	}
}

func TestConfig_LogFilePath(t *testing.T) {
	cfg := Default()

	if got := cfg.LogFilePath("/work"); got != "/work/hutt.log" {
		t.Errorf("LogFilePath() = %v, want /work/hutt.log", got)
	}

	cfg.Run.LogFile = "/var/log/hutt.log"
	if got := cfg.LogFilePath("/work"); got != "/var/log/hutt.log" {
		t.Errorf("LogFilePath() = %v, want absolute path unchanged", got)
	}
}
