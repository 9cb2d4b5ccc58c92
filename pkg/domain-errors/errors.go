// Package dErrors provides coded domain errors.
//
// Services return these so transports can map failures to protocol-level
// responses without inspecting error strings. Stores return sentinel errors
// (pkg/platform/sentinel) and services translate them into coded errors here.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are stable API: HTTP mapping lives in
// pkg/platform/httputil, logging/alerting keys off the code string.
type Code string

const (
	// CodeValidation marks malformed or semantically invalid caller input.
	CodeValidation Code = "validation_failed"
	// CodeInvalidInput marks input that fails parsing at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally broken request (unreadable body).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a missing or unusable actor identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a role or ownership mismatch.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an unknown entity id.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or versioning conflict.
	CodeConflict Code = "conflict"
	// CodeAlreadyResolved marks a state machine whose transition has already
	// been taken; the caller must not retry.
	CodeAlreadyResolved Code = "already_resolved"
	// CodeDuplicateRequest marks a request that would violate a
	// one-pending-per-actor uniqueness invariant.
	CodeDuplicateRequest Code = "duplicate_request"
	// CodeInvariantViolation marks an illegal domain state transition.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeExternalDependency marks a gateway or downstream collaborator
	// failure surfaced to the caller.
	CodeExternalDependency Code = "external_dependency"
	// CodeInternal marks an unexpected failure; details are never exposed.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// yields nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Uncoded errors get a
// generic message so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
