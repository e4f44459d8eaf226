// Package service holds the workflows that sit between HTTP handlers and
// the repositories: authentication, behavior recording with notification
// fan-out, and direct messaging.
package service

import (
	"errors"
	"net/http"

	"github.com/iliyamo/school-behavior-tracker/internal/repository"
	"github.com/iliyamo/school-behavior-tracker/internal/validate"
)

// Kind classifies a failure for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindInvalidInput
	KindNotFound
	KindConflict
)

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.  Message is safe to show to clients; Err
// carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrUnauthorized is shared by every authentication failure so unknown users
// and wrong passwords look the same.
var ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "Unauthorized"}

func Invalid(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Classify converts repository and validation errors into *Error.  Errors
// that are already classified pass through; anything else is internal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		return &Error{Kind: KindInvalidInput, Field: fe.Field, Message: fe.Message, Err: err}
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "Not found", Err: err}
	case errors.Is(err, repository.ErrDuplicate):
		return &Error{Kind: KindConflict, Message: "Already exists", Err: err}
	case errors.Is(err, repository.ErrReferenced):
		return &Error{Kind: KindConflict, Message: "Record is referenced by other records", Err: err}
	}
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf reports the Kind of err after classification.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return Classify(err).Kind
}
