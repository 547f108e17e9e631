// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     logging
// Description: Root handler construction with console and JSON file fan-out
// License:     Apache-2.0
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

var (
	rootMu sync.RWMutex
	root   slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
)

// LoggerConfig holds configuration for the root logger
type LoggerConfig struct {
	// Log level for the console (debug, info, warn, error)
	Level string

	// Console format: "text" or "json" (default: text)
	Format string

	// Console destination (default: os.Stderr)
	Output io.Writer

	// JSONFile receives every record at debug level when set
	JSONFile string

	// Additional outputs, written with the console format and level
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
	}
}

// NewHandler builds the fan-out handler described by cfg. The returned
// closer releases the JSON file, if any.
func NewHandler(cfg LoggerConfig) (slog.Handler, io.Closer, error) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if len(cfg.AdditionalOutputs) > 0 {
		output = io.MultiWriter(append([]io.Writer{output}, cfg.AdditionalOutputs...)...)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level).slogLevel()}
	var console slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		console = slog.NewJSONHandler(output, opts)
	} else {
		console = slog.NewTextHandler(output, opts)
	}

	if cfg.JSONFile == "" {
		return console, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.JSONFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.JSONFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open json log: %w", err)
	}
	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slogmulti.Fanout(console, file), f, nil
}

// Configure installs the root handler used by every logger created with New.
func Configure(cfg LoggerConfig) (io.Closer, error) {
	h, closer, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	rootMu.Lock()
	root = h
	rootMu.Unlock()
	return closer, nil
}

func rootHandler() slog.Handler {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// ParseLevel converts a string level to a Level, defaulting to info
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
