// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     version
// Description: Central version management
// License:     Apache-2.0
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// Tool version
	Hutt = "0.2.0"

	// Component versions
	ShellProtocol = "1.0.0"
	HistorySchema = "1.0.0"
)

// Set through -ldflags at build time
var (
	GitCommit = "development"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "shell":
		return ShellProtocol
	case "history":
		return HistorySchema
	default:
		return Hutt
	}
}

// Info returns a multi-line build description
func Info() string {
	return fmt.Sprintf("hutt v%s\n  Git Commit: %s\n  Build Date: %s\n  Go Version: %s\n  OS/Arch:    %s/%s\n",
		Hutt, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
