// Package errors provides centralized error definitions for the boost
// subsystem. The session boundary knows exactly two error kinds:
// illegal state (operating on a closed, untargeted, or wrongly-staged
// session) and illegal argument (rejected input). Both are returned
// synchronously and never retried internally.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience so callers can
// import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for the two rejection kinds of the session boundary.
var (
	// ErrIllegalState indicates the session is in a state that cannot
	// accept the call (closed, paused, or not yet targeted).
	ErrIllegalState = New("illegal state")
	// ErrIllegalArgument indicates the call carried rejected input.
	ErrIllegalArgument = New("illegal argument")
)

// SessionError represents a rejected session operation.
//
// Example:
//
//	err := errors.IllegalState("session is closed").WithSessionID("123-1000-7")
//	fmt.Println(err) // "session error [session=123-1000-7]: session is closed: illegal state"
type SessionError struct {
	message   string
	cause     error
	SessionID string
	Operation string
}

// IllegalState creates a SessionError wrapping ErrIllegalState.
func IllegalState(message string) *SessionError {
	return &SessionError{message: message, cause: ErrIllegalState}
}

// IllegalArgument creates a SessionError wrapping ErrIllegalArgument.
func IllegalArgument(message string) *SessionError {
	return &SessionError{message: message, cause: ErrIllegalArgument}
}

// WithSessionID adds the session id string to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithOperation adds the rejected operation name to the error context.
func (e *SessionError) WithOperation(op string) *SessionError {
	e.Operation = op
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}

	prefix := "session error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("session error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying sentinel.
func (e *SessionError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsIllegalState reports whether err is (or wraps) an illegal-state
// rejection.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsIllegalArgument reports whether err is (or wraps) an
// illegal-argument rejection.
func IsIllegalArgument(err error) bool {
	return errors.Is(err, ErrIllegalArgument)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
