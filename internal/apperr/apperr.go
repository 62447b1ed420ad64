// Package apperr defines the coded errors shared by the service and handler
// layers. Handlers map codes to HTTP statuses; store internals stay behind
// CodeStore and are never surfaced to clients.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Validation(msg string) error { return New(CodeValidation, msg) }
func Conflict(msg string) error   { return New(CodeConflict, msg) }
func NotFound(msg string) error   { return New(CodeNotFound, msg) }
func Auth(msg string) error       { return New(CodeAuth, msg) }

// Store wraps an underlying persistence failure. The cause is kept for
// logging but excluded from any serialized form.
func Store(cause error) error {
	return Wrap(CodeStore, "storage failure", cause)
}

// CodeOf extracts the code from err, or CodeUnknown if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
