// Package errors provides structured error types for the mockup toolkit.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Operator-facing messages without stack traces
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input and structural validation failures
//   - SIZE_EXCEEDED: An element cannot fit on a merge sheet
//   - ASSET_UNAVAILABLE / FILE_NOT_FOUND / NETWORK_ERROR: Asset resolution failures
//   - DECODER_FAILED: The external decoder subprocess failed
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSizeExceeded, "element %s width %v exceeds %v", name, w, max)
//	if errors.Is(err, errors.ErrCodeSizeExceeded) {
//	    // Report the oversized element
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeAssetUnavailable, origErr, "failed to read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidStructure Code = "INVALID_STRUCTURE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Packing errors
	ErrCodeSizeExceeded Code = "SIZE_EXCEEDED"

	// Asset errors
	ErrCodeAssetUnavailable Code = "ASSET_UNAVAILABLE"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeNotFound         Code = "NOT_FOUND"

	// External process errors
	ErrCodeDecoderFailed Code = "DECODER_FAILED"

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
	if err == nil {
		return ""
	}
	var ge GroupErrors
	if errors.As(err, &ge) {
		return ge.userMessage()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// GroupError records the failure of one independently processed output group
// (a hashtag group during merge or export).
type GroupError struct {
	Group string
	Err   error
}

// Error implements the error interface.
func (e GroupError) Error() string {
	return fmt.Sprintf("group %q: %v", e.Group, e.Err)
}

// Unwrap returns the group's underlying error.
func (e GroupError) Unwrap() error { return e.Err }

// GroupErrors collects per-group failures. Sibling groups that succeeded are
// not represented here.
type GroupErrors []GroupError

// Error implements the error interface.
func (g GroupErrors) Error() string {
	parts := make([]string, len(g))
	for i, e := range g {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes every group's error to errors.Is/As.
func (g GroupErrors) Unwrap() []error {
	errs := make([]error, len(g))
	for i, e := range g {
		errs[i] = e.Err
	}
	return errs
}

// Groups returns the names of the failed groups in order.
func (g GroupErrors) Groups() []string {
	names := make([]string, len(g))
	for i, e := range g {
		names[i] = e.Group
	}
	return names
}

// OrNil returns nil when no group failed so callers can return it directly.
func (g GroupErrors) OrNil() error {
	if len(g) == 0 {
		return nil
	}
	return g
}

func (g GroupErrors) userMessage() string {
	parts := make([]string, len(g))
	for i, e := range g {
		parts[i] = fmt.Sprintf("%s: %s", e.Group, UserMessage(e.Err))
	}
	return "failed groups: " + strings.Join(parts, "; ")
}
