// Package errors provides structured error types for ThinkingSpace.
//
// Every failure a user can see carries a machine-readable [Code] so the
// editor, the CLI and the HTTP server can react to the category of a
// failure rather than its text:
//
//   - FETCH_ERROR: the initial document could not be retrieved
//   - PARSE_ERROR: a text document is not well-formed
//   - SCHEMA_ERROR: a well-formed document lacks required structure
//   - REFERENTIAL_GAP: a connection names a node that does not exist
//   - INVALID_*: input validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchema, "missing section %q", "groups")
//	if errors.Is(err, errors.ErrCodeSchema) {
//	    // keep the current document
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Document errors
	ErrCodeFetch          Code = "FETCH_ERROR"
	ErrCodeParse          Code = "PARSE_ERROR"
	ErrCodeSchema         Code = "SCHEMA_ERROR"
	ErrCodeReferentialGap Code = "REFERENTIAL_GAP"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidDialect Code = "INVALID_DIALECT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Title returns a short heading for a code, used in status lines and
// HTTP problem responses.
func Title(code Code) string {
	switch code {
	case ErrCodeFetch:
		return "Load failed"
	case ErrCodeParse:
		return "Invalid syntax"
	case ErrCodeSchema:
		return "Invalid document"
	case ErrCodeReferentialGap:
		return "Dangling reference"
	case ErrCodeNotFound, ErrCodeSnapshotNotFound:
		return "Not found"
	case ErrCodeNetwork, ErrCodeTimeout:
		return "Network problem"
	case "":
		return "Error"
	default:
		return "Invalid request"
	}
}
