// Package errs classifies the error kinds the backend surfaces to its
// caller. Every error the dispatcher returns is a *Error so the frontend
// can branch on Kind without parsing message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the broad category of a failure so callers can branch
// without parsing message text.
type Kind string

const (
	Validation Kind = "validation"
	IO         Kind = "io"
	Decode     Kind = "decode"
	External   Kind = "external"
)

// Error wraps a descriptive message with a Kind. It implements error and
// unwraps to the underlying cause when there is one.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

func IOErrorf(cause error, format string, args ...any) error {
	return &Error{Kind: IO, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Decodef(cause error, format string, args ...any) error {
	return &Error{Kind: Decode, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Externalf wraps an error reported verbatim by an external subprocess
// (its own JSON status carries success=false and an error string).
func Externalf(message string) error {
	return &Error{Kind: External, Message: message}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
