package errs

import (
	"errors"
	"fmt"
)

// Code identifies a failure class that the request layer maps to a response.
type Code string

const (
	// Validation means a required field is missing or an input is invalid.
	Validation Code = "VALIDATION"
	// NotFound means the referenced ticket or asset does not exist.
	NotFound Code = "NOT_FOUND"
	// Conflict means a uniqueness constraint rejected the write (asset code collisions).
	Conflict Code = "UNIQUE_VIOLATION"
	// InvalidTransition means a ticket was moved from a state that does not allow it.
	InvalidTransition Code = "INVALID_TRANSITION"
	// Persistence covers every other backend failure.
	Persistence Code = "PERSISTENCE"
	// NotificationDispatch is raised inside the notifier and never leaves it.
	NotificationDispatch Code = "NOTIFICATION_DISPATCH"
)

// Error is the error type returned by the core packages.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

// New creates an Error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that keeps cause reachable through errors.Is / errors.As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Invalid builds a Validation error with per-field details.
func Invalid(message string, fields map[string]string) *Error {
	return &Error{Code: Validation, Message: message, Fields: fields}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
