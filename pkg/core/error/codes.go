// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     error
// Description: Error codes used to classify failures across the run pipeline
// License:     Apache-2.0
// ============================================================================

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"

	// Document parsing
	CodeParse             Code = "PARSE"
	CodeUnknownCommand    Code = "UNKNOWN_COMMAND"
	CodeUnsupportedMode   Code = "UNSUPPORTED_MODE"
	CodeUnterminatedBlock Code = "UNTERMINATED_BLOCK"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeDuplicateName     Code = "DUPLICATE_NAME"

	// Run selection
	CodeUsage          Code = "USAGE"
	CodeNotImplemented Code = "NOT_IMPLEMENTED"

	// Execution
	CodeStepFailed   Code = "STEP_FAILED"
	CodeSessionFatal Code = "SESSION_FATAL"
	CodeLifecycle    Code = "LIFECYCLE"

	// Environment
	CodeConfig Code = "CONFIG"
	CodeIO     Code = "IO"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeParse, CodeUnknownCommand, CodeUnsupportedMode, CodeUnterminatedBlock,
		CodeInvalidArgument, CodeDuplicateName:
		return "parse"
	case CodeUsage, CodeNotImplemented:
		return "selection"
	case CodeStepFailed:
		return "step"
	case CodeSessionFatal, CodeLifecycle:
		return "session"
	case CodeConfig, CodeIO:
		return "environment"
	default:
		return "generic"
	}
}

// ExitCode maps a code to the process exit status used by the CLI.
func (c Code) ExitCode() int {
	switch c.Category() {
	case "parse", "selection":
		return 2
	default:
		return 1
	}
}
