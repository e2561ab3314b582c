// Package apperror classifies errors so handlers can map them to responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the class of an application error
type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindConsistency Kind = "CONSISTENCY_WARNING"
	KindNotFound    Kind = "NOT_FOUND"
	KindForbidden   Kind = "FORBIDDEN"
	KindConflict    Kind = "CONFLICT"
	KindInternal    Kind = "INTERNAL_ERROR"
)

// Error is a classified error wrapping a more specific cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code a handler should answer with.
func (e *Error) HTTPStatus() int {
	return StatusFor(e.Kind)
}

// New creates an error of the given kind with a plain message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err as kind. A nil err yields nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Validation marks err as caller-correctable input.
func Validation(err error) error {
	return Wrap(KindValidation, err)
}

// Consistency marks err as a non-fatal data consistency warning.
func Consistency(err error) error {
	return Wrap(KindConsistency, err)
}

func NotFound(err error) error  { return Wrap(KindNotFound, err) }
func Forbidden(err error) error { return Wrap(KindForbidden, err) }
func Conflict(err error) error  { return Wrap(KindConflict, err) }

// KindOf returns the kind of the first classified error in err's chain,
// or KindInternal when none is found.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return Is(err, KindValidation)
}

// StatusFor maps a kind to an HTTP status code.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
