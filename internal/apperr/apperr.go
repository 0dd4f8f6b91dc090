// Package apperr defines the error taxonomy shared by services and handlers.
// Business violations travel as *Error values carrying a Kind; handlers map
// the Kind to an HTTP status in one place so no endpoint invents its own.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind categorises an application error.
type Kind int

const (
	// KindInternal covers unexpected store or infrastructure failures.
	KindInternal Kind = iota
	// KindUnauthenticated indicates a missing, invalid or expired session.
	KindUnauthenticated
	// KindForbidden indicates a role, relationship or lifecycle violation.
	KindForbidden
	// KindNotFound indicates a missing resource, or one deliberately hidden
	// from the caller to avoid leaking its existence.
	KindNotFound
	// KindValidation indicates missing or malformed request fields.
	KindValidation
)

// Error is the concrete error type produced by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthenticated builds an authentication failure.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden builds an authorization or lifecycle violation with a
// human-readable reason.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound builds a not-found failure with a deliberately generic message.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Validation builds a request validation failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal wraps an infrastructure failure. The cause is retained for
// logging but never surfaced to API callers.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-visible message for err. Internal errors are
// collapsed to a generic message so infrastructure detail never leaks.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps an error kind to the HTTP status conveying its category.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
