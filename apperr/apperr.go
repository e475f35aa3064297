// Package apperr defines the error taxonomy shared by the agent core, the
// stores and the HTTP handlers.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	// Validation: missing or malformed required input. Surfaced immediately,
	// no side effects attempted.
	Validation Kind = iota + 1
	// DataUnavailable: transient failure reading or writing a backend.
	DataUnavailable
	// NotFound: the referenced record does not exist or is not in the
	// expected state.
	NotFound
	// Conflict: a status transition from a non-eligible state, or anything
	// that would violate the single-live-suggestion rule.
	Conflict
	// Configuration: required configuration is absent; fails the whole
	// operation before any per-item work starts.
	Configuration
)

// Error carries a kind, a short message, and optional developer details.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ValidationError(message string) *Error {
	return New(Validation, message)
}

func NotFoundError(message string) *Error {
	return New(NotFound, message)
}

func ConflictError(message string) *Error {
	return New(Conflict, message)
}

func Unavailable(message string, err error) *Error {
	return Wrap(DataUnavailable, message, err)
}

func ConfigError(message string) *Error {
	return New(Configuration, message)
}

// KindOf returns the kind of err, or 0 for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API boundary uses.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return fiber.StatusBadRequest
	case NotFound:
		return fiber.StatusNotFound
	case Conflict:
		return fiber.StatusConflict
	case DataUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// DetailsOf returns developer details for the error, or the error text for
// untyped errors.
func DetailsOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Details != "" {
			return e.Details
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return ""
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
