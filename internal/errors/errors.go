// Package errors provides standardized domain errors with codes for the
// aria-core library engine.
//
// Usage:
//
//	// When no plugin claims a file type
//	return errors.NoApplicableImporter(url)
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNoApplicableImporter) {
//	    // surface as a per-file discovery error, keep going
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the engine.
const (
	CodeNoApplicableImporter Code = "NO_APPLICABLE_IMPORTER"
	CodeNoApplicableGrabber  Code = "NO_APPLICABLE_GRABBER"
	CodeInvalidFormat        Code = "INVALID_FORMAT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeAccessDenied         Code = "ACCESS_DENIED"
	CodeDecodingFailure      Code = "DECODING_FAILURE"
	CodePersistence          Code = "PERSISTENCE"
	CodeInternal             Code = "INTERNAL"
)

// Error is a domain error with a code, message, and the url it concerns.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg = fmt.Sprintf("%s: %s", e.Message, e.URL)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		URL:     e.URL,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNoApplicableImporter = &Error{Code: CodeNoApplicableImporter, Message: "no applicable importer"}
	ErrNoApplicableGrabber  = &Error{Code: CodeNoApplicableGrabber, Message: "no applicable grabber"}
	ErrInvalidFormat        = &Error{Code: CodeInvalidFormat, Message: "invalid format"}
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAccessDenied         = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrDecodingFailure      = &Error{Code: CodeDecodingFailure, Message: "decoding failure"}
	ErrPersistence          = &Error{Code: CodePersistence, Message: "persistence failure"}
	ErrInternal             = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors bound to a url.

// NoApplicableImporter creates an error recording that no importer claimed
// the url's type.
func NoApplicableImporter(url string) *Error {
	return &Error{Code: CodeNoApplicableImporter, Message: "no applicable importer", URL: url}
}

// NoApplicableGrabber creates an error recording that no grabber claimed
// the url's type.
func NoApplicableGrabber(url string) *Error {
	return &Error{Code: CodeNoApplicableGrabber, Message: "no applicable grabber", URL: url}
}

// InvalidFormat creates an error for plugin-detected malformed input.
func InvalidFormat(url string, cause error) *Error {
	return &Error{Code: CodeInvalidFormat, Message: "invalid format", URL: url, cause: cause}
}

// NotFound creates a not found error for a url.
func NotFound(url string, cause error) *Error {
	return &Error{Code: CodeNotFound, Message: "not found", URL: url, cause: cause}
}

// AccessDenied creates an access denied error for a url.
func AccessDenied(url string, cause error) *Error {
	return &Error{Code: CodeAccessDenied, Message: "access denied", URL: url, cause: cause}
}

// DecodingFailure creates a decoding error for a url.
func DecodingFailure(url string, cause error) *Error {
	return &Error{Code: CodeDecodingFailure, Message: "decoding failure", URL: url, cause: cause}
}

// Persistence creates a persistence error.
func Persistence(msg string, cause error) *Error {
	return &Error{Code: CodePersistence, Message: msg, cause: cause}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
