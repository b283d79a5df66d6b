// Package domainerrors provides coded errors for the governance engine.
//
// Services return these so transport layers can translate outcomes into
// consistent HTTP responses without string matching. Stores return
// sentinel errors (pkg/platform/sentinel) and services wrap them here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport translation and callers
// that need to branch on error kind.
type Code string

const (
	// CodeValidation covers malformed input rejected before any state
	// change: unknown environments, negative TTLs, empty identifiers.
	CodeValidation Code = "validation_error"

	// CodeBadRequest covers requests that are structurally broken
	// (undecodable body, missing required field).
	CodeBadRequest Code = "bad_request"

	// CodeAuthorizationDenied covers well-formed requests refused by
	// policy, e.g. a mapping update naming a sensitive tool without an
	// active approval. Distinct from CodeValidation so callers can tell
	// "malformed input" from "refused".
	CodeAuthorizationDenied Code = "authorization_denied"

	// CodeNotFound covers unknown agent, integration, or revocation IDs.
	// Distinct from a denial so callers can tell "doesn't exist" from
	// "exists but refused".
	CodeNotFound Code = "not_found"

	// CodeConflict covers state-machine violations, e.g. approving an
	// integration that is not in the REQUESTED state.
	CodeConflict Code = "conflict"

	// CodeIntegrityViolation is raised by chain reconstruction when a
	// stored hash does not match its recomputed digest.
	CodeIntegrityViolation Code = "integrity_violation"

	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It optionally wraps a cause so
// errors.Is/As keep working through the domain layer.
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

// New constructs a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error, defaulting to CodeInternal
// for uncoded errors so nothing leaks as a 200.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeAuthorizationDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeIntegrityViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
