// Package apierrors defines the closed set of failures the authentication
// service can signal, plus runtime predicates so callers can branch on the
// failure category without matching concrete types.
package apierrors

import (
	"errors"
	"fmt"
)

// UnauthorizedError reports that the caller's credentials or session token
// are invalid or absent (HTTP 401).
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// IsUnauthorizedError reports whether err is an UnauthorizedError.
func IsUnauthorizedError(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// ForbiddenError reports that the caller is authenticated but lacks the
// permission required for the action (HTTP 403).
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// IsForbiddenError reports whether err is a ForbiddenError.
func IsForbiddenError(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// UserNotFoundError reports that the target user resource does not exist
// (HTTP 404).
type UserNotFoundError struct {
	Message string
}

func (e *UserNotFoundError) Error() string { return e.Message }

// IsUserNotFoundError reports whether err is a UserNotFoundError.
func IsUserNotFoundError(err error) bool {
	var target *UserNotFoundError
	return errors.As(err, &target)
}

// validationKind marks every error that belongs to the validation category.
// EmailTakenError implements it too, so IsValidationError matches both.
type validationKind interface {
	validationError()
}

// ValidationError reports a semantic or business-rule rejection, either from
// the remote service (HTTP 422) or from client-side payload checks.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string    { return e.Message }
func (e *ValidationError) validationError() {}

// IsValidationError reports whether err belongs to the validation category.
// This includes EmailTakenError.
func IsValidationError(err error) bool {
	var target validationKind
	return errors.As(err, &target)
}

// EmailTakenError is a validation error signaling an email-uniqueness
// conflict. The remote service conveys it with HTTP 410 (Gone); this mapping
// is preserved for wire compatibility only.
type EmailTakenError struct {
	Message string
}

func (e *EmailTakenError) Error() string    { return e.Message }
func (e *EmailTakenError) validationError() {}

// IsEmailTakenError reports whether err is an EmailTakenError.
func IsEmailTakenError(err error) bool {
	var target *EmailTakenError
	return errors.As(err, &target)
}

// InternalError covers every other non-success status, as well as malformed
// or unparseable response bodies. The message embeds the status code and the
// raw response body for diagnostics.
type InternalError struct {
	Message string
	// Status is the HTTP status code that produced the error, or 0 when the
	// failure happened before a response was received.
	Status int
}

func (e *InternalError) Error() string { return e.Message }

// IsInternalError reports whether err is an InternalError. The query layer
// treats these as transient and retries them.
func IsInternalError(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}

// NewErrorResponseMessage formats the diagnostic message for an unexpected
// response, embedding the status code and the raw body when one was read.
func NewErrorResponseMessage(op string, status int, body string) string {
	if body == "" {
		return fmt.Sprintf("%s: unexpected status code %d", op, status)
	}
	return fmt.Sprintf("%s: [%d] %s", op, status, body)
}
