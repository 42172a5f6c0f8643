// Package apperr defines the error kinds the session core reports to the
// resolver layer. Each error carries a stable machine-readable code; the
// GraphQL layer is responsible for formatting, not this package.
package apperr

import "errors"

// Stable codes surfaced under extensions.code.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidArgument = "BAD_USER_INPUT"
	CodeNotFound        = "NOT_FOUND"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func Unauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func InvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// CodeOf returns the machine code of err, or empty when err is not an
// apperr error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given machine code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
