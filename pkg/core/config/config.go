package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvVar names the environment variable pointing at a config file
const EnvVar = "HUTT_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Run      RunConfig      `toml:"run"`
	History  HistoryConfig  `toml:"history"`
	Download DownloadConfig `toml:"download"`
}

// GeneralConfig holds logging settings for hutt itself
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogJSON   string `toml:"log_json"`
}

// RunConfig holds tutorial execution settings
type RunConfig struct {
	WorkDir      string            `toml:"workdir"`
	LogFile      string            `toml:"log_file"`
	Shell        string            `toml:"shell"`
	IgnoreErrors bool              `toml:"ignore_errors"`
	KillTimeout  Duration          `toml:"kill_timeout"`
	Env          map[string]string `toml:"env"`
}

// HistoryConfig holds the run history database settings. An empty path
// disables recording.
type HistoryConfig struct {
	Path string `toml:"path"`
}

// DownloadConfig holds settings for remote file downloads
type DownloadConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from HUTT_CONFIG or the default locations.
// When no file exists anywhere the defaults are returned.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}

	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	return Default(), nil
}

// DefaultPaths lists the locations searched for a config file
func DefaultPaths() []string {
	paths := []string{"./hutt.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hutt", "config.toml"))
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.LogLevel == "" {
		c.General.LogLevel = "warn"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Run
	if c.Run.WorkDir == "" {
		c.Run.WorkDir = "."
	}
	if c.Run.LogFile == "" {
		c.Run.LogFile = "hutt.log"
	}
	if c.Run.Shell == "" {
		c.Run.Shell = "bash"
	}
	if c.Run.KillTimeout.Duration == 0 {
		c.Run.KillTimeout.Duration = 5 * time.Second
	}
	if c.Run.Env == nil {
		c.Run.Env = make(map[string]string)
	}

	// Download
	if c.Download.BaseURL == "" {
		c.Download.BaseURL = "https://drive.google.com/uc"
	}
	if c.Download.Timeout.Duration == 0 {
		c.Download.Timeout.Duration = 10 * time.Minute
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.General.LogJSON = os.ExpandEnv(c.General.LogJSON)
	c.Run.WorkDir = os.ExpandEnv(c.Run.WorkDir)
	c.Run.LogFile = os.ExpandEnv(c.Run.LogFile)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// LogFilePath resolves the shell log file against the working directory.
func (c *Config) LogFilePath(workDir string) string {
	if filepath.IsAbs(c.Run.LogFile) {
		return c.Run.LogFile
	}
	return filepath.Join(workDir, c.Run.LogFile)
}
