// Package errors provides standardized domain errors with codes for the VinylFlow API.
//
// Usage:
//
//	// In services - return typed errors
//	if at <= track.Start || at >= track.End {
//	    return errors.OutOfRangeSplit("split point outside track")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    response.NotFound(w, err.Error(), logger)
//	    return
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeMappingLengthMismatch:
//	        response.Conflict(w, domainErr.Message, logger)
//	    case errors.CodeValidation:
//	        response.BadRequest(w, domainErr.Message, logger)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeInternal      Code = "INTERNAL"
	CodeRateLimited   Code = "RATE_LIMITED"
	CodeUnavailable   Code = "UNAVAILABLE"

	// Segmentation and mapping failures surfaced to the editing UI.
	CodeOutOfRangeSplit         Code = "OUT_OF_RANGE_SPLIT"
	CodeDurationDataUnavailable Code = "DURATION_DATA_UNAVAILABLE"
	CodeUnparseableDuration     Code = "UNPARSEABLE_DURATION"
	CodeMappingLengthMismatch   Code = "MAPPING_LENGTH_MISMATCH"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeMappingLengthMismatch:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeOutOfRangeSplit, CodeDurationDataUnavailable, CodeUnparseableDuration:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
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

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound                = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists           = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation              = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict                = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal                = &Error{Code: CodeInternal, Message: "internal error"}
	ErrRateLimited             = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrUnavailable             = &Error{Code: CodeUnavailable, Message: "service unavailable"}
	ErrOutOfRangeSplit         = &Error{Code: CodeOutOfRangeSplit, Message: "split point out of range"}
	ErrDurationDataUnavailable = &Error{Code: CodeDurationDataUnavailable, Message: "duration data unavailable"}
	ErrUnparseableDuration     = &Error{Code: CodeUnparseableDuration, Message: "unparseable duration"}
	ErrMappingLengthMismatch   = &Error{Code: CodeMappingLengthMismatch, Message: "mapping length mismatch"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// OutOfRangeSplit creates an out of range split error.
func OutOfRangeSplit(msg string) *Error {
	return &Error{Code: CodeOutOfRangeSplit, Message: msg}
}

// OutOfRangeSplitf creates an out of range split error with formatted message.
func OutOfRangeSplitf(format string, args ...any) *Error {
	return &Error{Code: CodeOutOfRangeSplit, Message: fmt.Sprintf(format, args...)}
}

// DurationDataUnavailable creates a duration data unavailable error.
func DurationDataUnavailable(msg string) *Error {
	return &Error{Code: CodeDurationDataUnavailable, Message: msg}
}

// DurationDataUnavailablef creates a duration data unavailable error with formatted message.
func DurationDataUnavailablef(format string, args ...any) *Error {
	return &Error{Code: CodeDurationDataUnavailable, Message: fmt.Sprintf(format, args...)}
}

// UnparseableDuration creates an unparseable duration error.
func UnparseableDuration(msg string) *Error {
	return &Error{Code: CodeUnparseableDuration, Message: msg}
}

// UnparseableDurationf creates an unparseable duration error with formatted message.
func UnparseableDurationf(format string, args ...any) *Error {
	return &Error{Code: CodeUnparseableDuration, Message: fmt.Sprintf(format, args...)}
}

// MappingLengthMismatch creates a mapping length mismatch error.
func MappingLengthMismatch(msg string) *Error {
	return &Error{Code: CodeMappingLengthMismatch, Message: msg}
}

// MappingLengthMismatchf creates a mapping length mismatch error with formatted message.
func MappingLengthMismatchf(format string, args ...any) *Error {
	return &Error{Code: CodeMappingLengthMismatch, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
