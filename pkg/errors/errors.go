// Package errors provides structured error types for the phasehull engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The engine taxonomy maps one code to each failure class:
//   - DEGENERATE_INPUT: too few affinely independent points to build a hull
//   - OUT_OF_RANGE: a temperature outside the sampled range was requested
//   - NUMERICAL_INSTABILITY: a predicate landed near its epsilon threshold
//     (recorded as a warning, never returned as a hard failure)
//   - COMPLEX_INTEGRITY: a derived stable complex failed its tiling check
//   - INVALID_*: input validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDegenerateInput, "need %d points, got %d", d+1, n)
//	if errors.Is(err, errors.ErrCodeDegenerateInput) {
//	    // Show an error state
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine errors
	ErrCodeDegenerateInput      Code = "DEGENERATE_INPUT"
	ErrCodeOutOfRange           Code = "OUT_OF_RANGE"
	ErrCodeNumericalInstability Code = "NUMERICAL_INSTABILITY"
	ErrCodeComplexIntegrity     Code = "COMPLEX_INTEGRITY"

	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidComposition Code = "INVALID_COMPOSITION"
	ErrCodeMissingTerminal    Code = "MISSING_TERMINAL"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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
		return e.Message
	}
	return err.Error()
}

// OutOfRangeError carries the sampled bounds alongside an OUT_OF_RANGE failure
// so callers can clamp and retry.
type OutOfRangeError struct {
	Requested float64
	Min, Max  float64
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("temperature %g not in [%g, %g]", e.Requested, e.Min, e.Max)
}

// Code returns the error code for this error type.
func (e *OutOfRangeError) Code() Code {
	return ErrCodeOutOfRange
}

// Clamp returns the requested temperature limited to the sampled range.
func (e *OutOfRangeError) Clamp() float64 {
	return min(max(e.Requested, e.Min), e.Max)
}

// OutOfRange builds an OUT_OF_RANGE error. The result satisfies Is(err, ErrCodeOutOfRange)
// and errors.As(err, **OutOfRangeError).
func OutOfRange(requested, lo, hi float64) *Error {
	detail := &OutOfRangeError{Requested: requested, Min: lo, Max: hi}
	return &Error{
		Code:    ErrCodeOutOfRange,
		Message: "temperature outside sampled range",
		Cause:   detail,
	}
}
