// Package domainerrors carries the error taxonomy shared by services and the
// HTTP layer. Services return *Error values; transport translates the Code
// into a status with HTTPStatus.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure independent of transport.
type Code string

const (
	// CodeBadRequest covers malformed input such as a non-numeric path id.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound means the addressed resource does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized covers missing, invalid or expired credentials and
	// failed OAuth exchanges.
	CodeUnauthorized Code = "unauthorized"
	// CodeUnsupportedMediaType rejects bodies in a format the API does not read.
	CodeUnsupportedMediaType Code = "unsupported_media_type"
	// CodeInternal is anything the caller cannot act on.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Two errors match under errors.Is when code
// and message are equal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error that keeps err as its cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries a domain error with the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
