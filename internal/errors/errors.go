// Package errors defines the error kinds surfaced to API callers and the
// mapping from infrastructure errors onto them.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind and a message that is safe to show to clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

// Validation reports malformed or missing input.
func Validation(msg string) error { return newErr(KindValidation, msg) }

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return newErr(KindValidation, fmt.Sprintf(format, args...))
}

// Unauthenticated reports a missing, invalid or expired credential.
func Unauthenticated(msg string) error { return newErr(KindAuthentication, msg) }

// Forbidden reports an authenticated caller acting outside its permissions.
func Forbidden(msg string) error { return newErr(KindAuthorization, msg) }

// NotFound reports an absent or invisible resource.
func NotFound(msg string) error { return newErr(KindNotFound, msg) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) error { return newErr(KindConflict, msg) }

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Msg: "internal server error", Err: err}
}

// KindOf returns the Kind of err, KindInternal if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the message a client may see for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal server error"
}
