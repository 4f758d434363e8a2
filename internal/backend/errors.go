package backend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies collaborator failures so callers can branch without
// string matching.
type ErrorKind string

const (
	// KindNotFound means the referenced record does not exist remotely.
	KindNotFound ErrorKind = "not_found"
	// KindConflict means the write lost an optimistic-concurrency race.
	KindConflict ErrorKind = "conflict"
	// KindNetworkFailure means the collaborator was unreachable or timed out.
	KindNetworkFailure ErrorKind = "network_failure"
	// KindAuthFailure means the caller's credentials were rejected. Auth
	// failures propagate unchanged so the session layer can react.
	KindAuthFailure ErrorKind = "auth_failure"
	// KindValidationFailure means the collaborator rejected the payload.
	KindValidationFailure ErrorKind = "validation_failure"
)

// Error is the typed failure every collaborator returns. Wrap transport
// errors in one of these at the adapter boundary; the engine only ever
// branches on Kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Kind, so sentinel-style checks like
// errors.Is(err, backend.ErrNotFound) work across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNetworkFailure    = &Error{Kind: KindNetworkFailure, Message: "network failure"}
	ErrAuthFailure       = &Error{Kind: KindAuthFailure, Message: "auth failure"}
	ErrValidationFailure = &Error{Kind: KindValidationFailure, Message: "validation failure"}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NetworkFailure(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindNetworkFailure, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func AuthFailure(format string, args ...any) *Error {
	return &Error{Kind: KindAuthFailure, Message: fmt.Sprintf(format, args...)}
}

func ValidationFailure(format string, args ...any) *Error {
	return &Error{Kind: KindValidationFailure, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, unwrapping as needed. ok is false for
// plain errors that did not come from a collaborator.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return "", false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}

func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailure)
}

func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrValidationFailure)
}

// ProgrammingError marks an engine invariant violation: misuse of an API,
// rollback of an untouched key, overlapping cleanup key space. It is never a
// remote failure and must never be swallowed; callers surface it loudly.
type ProgrammingError struct {
	Message string
}

func Programming(format string, args ...any) *ProgrammingError {
	return &ProgrammingError{Message: fmt.Sprintf(format, args...)}
}

func (e *ProgrammingError) Error() string {
	return "programming error: " + e.Message
}

func IsProgrammingError(err error) bool {
	var e *ProgrammingError
	return errors.As(err, &e)
}
