// Package apperr defines the error taxonomy shared by every layer of the
// platform. Errors carry a machine-readable code plus a human-readable
// message; transports map codes to their own status space at the edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeInvalidKey         Code = "INVALID_KEY"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// Error is a code-carrying error. Field is set for validation failures to
// name the offending input field.
type Error struct {
	Code    Code
	Message string
	Field   string
	err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Field)
	}
	if e.err != nil {
		return msg + ": " + e.err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.err }

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code wrapping an underlying cause.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, err: err}
}

// Validation creates a ValidationFailed error naming the offending field.
func Validation(field, msg string) *Error {
	return &Error{Code: CodeValidationFailed, Message: msg, Field: field}
}

// CodeOf returns the code carried by err, or "" if err has none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FieldOf returns the field name carried by err, or "".
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// HTTPStatus maps an error to an HTTP status code. Errors without a known
// code map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidKey, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
