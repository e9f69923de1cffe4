package service

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/validation"
)

// Kind classifies a service failure.  Handlers map kinds onto HTTP
// status codes; nothing else about the error needs inspecting.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is returned by every service operation that fails.  Fields is
// populated for validation failures, one entry per offending field or
// row.  Err holds the underlying cause for internal failures and is
// never shown to API clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err.  Errors that did not come from this
// package are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func invalid(msg string, fields ...validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// fromStore converts a repository error into a service error.  Errors
// that already carry a kind pass through unchanged.
func fromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *Error
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, repository.ErrConflict):
		return &Error{Kind: KindConflict, Message: msg, Err: err}
	case errors.Is(err, repository.ErrPersonNotFound),
		errors.Is(err, repository.ErrAmbassadorNotFound),
		errors.Is(err, repository.ErrConfigNotFound):
		return &Error{Kind: KindNotFound, Message: msg, Err: err}
	}
	return internal(err, msg)
}

// rejected turns a failed validation result into a service error.
func rejected[T any](res validation.Result[T]) error {
	if res.Ok() {
		return nil
	}
	return invalid("validation failed", res.Errors...)
}
