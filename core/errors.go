package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies expected failures so that callers can branch on them
// without matching on message text.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

// Error is an expected, structured failure. It carries a machine-readable
// code (e.g. "invite/not-found") alongside its Kind; anything that is not an
// *Error is treated as an infrastructure failure by the API layer.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func NewError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

// AsError unwraps err (following pkg/errors causes) into an *Error if it is one.
func AsError(err error) (*Error, bool) {
	e, ok := errors.Cause(err).(*Error)
	return e, ok
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := AsError(err); ok {
		return e.Kind == kind
	}
	return false
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
