// Package apperr defines the error taxonomy shared by stores, features, and
// the HTTP layer. Stores and features return errors wrapping one of the
// sentinel kinds below; the HTTP layer is the single place that maps a kind
// to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
	ErrStorage      = errors.New("storage failure")
)

// NotFound wraps ErrNotFound with a caller-facing message.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Unauthorized wraps ErrUnauthorized with a caller-facing message.
func Unauthorized(format string, args ...any) error {
	return wrap(ErrUnauthorized, format, args...)
}

// Validation wraps ErrValidation with a caller-facing message.
func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

// Conflict wraps ErrConflict with a caller-facing message.
func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// Upstream wraps an external-provider failure, keeping the cause in the
// chain for logging.
func Upstream(cause error, format string, args ...any) error {
	return wrapCause(ErrUpstream, cause, format, args...)
}

// Storage wraps a persistence failure, keeping the cause in the chain.
func Storage(cause error, format string, args ...any) error {
	return wrapCause(ErrStorage, cause, format, args...)
}

type kindError struct {
	kind  error
	cause error
	msg   string
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }

func wrap(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapCause(kind, cause error, format string, args ...any) error {
	return &kindError{kind: kind, cause: cause, msg: fmt.Sprintf(format, args...)}
}

// Message returns the caller-facing message without the wrapped cause, for
// use in HTTP error bodies where internals should not leak.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
