// Tool-level error taxonomy. Every one of these is converted into a failure
// ToolResult by the Executor and fed back to the model as text; none of them
// ends the conversation.
package tools

import (
	"errors"
	"fmt"
	"time"

	"github.com/mfateev/sandbox-agent/internal/sandbox"
)

// ValidationError indicates invalid input from the model.
// Examples: missing required argument, invalid argument type, malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a validation error with formatting.
func NewValidationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a path that does not exist inside the root.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q does not exist", e.Path)
}

// NotAFileError reports a path that exists but is not a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("%q is not a regular file", e.Path)
}

// NotADirectoryError reports a path that exists but is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("%q is not a directory", e.Path)
}

// DecodeError reports content that is not valid UTF-8 text.
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%q is not valid UTF-8 text", e.Path)
}

// ExecutionTimeoutError reports a script killed after exceeding its timeout.
type ExecutionTimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution timed out: %q did not finish within %s and was terminated", e.Path, e.Timeout)
}

// UnknownToolError reports an invocation naming a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown function: %s", e.Name)
}

// ErrorClass names the taxonomy class of a tool error for traces and metrics.
func ErrorClass(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		notAFile   *NotAFileError
		notADir    *NotADirectoryError
		decode     *DecodeError
		timeout    *ExecutionTimeoutError
		unknown    *UnknownToolError
		contained  *sandbox.ContainmentError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &notAFile):
		return "not_a_file"
	case errors.As(err, &notADir):
		return "not_a_directory"
	case errors.As(err, &decode):
		return "decode"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &unknown):
		return "unknown_tool"
	case errors.As(err, &contained):
		return "containment"
	default:
		return "error"
	}
}
