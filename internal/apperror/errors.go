// Package apperror provides typed request errors and their HTTP status mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error for status mapping and response formatting.
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthorized       Kind = "unauthorized"
	KindParse              Kind = "parse_error"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind    Kind
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

// HTTPStatus returns the status code sent for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest, KindInvalidCredentials, KindParse:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON body written for an Error.
type Response struct {
	Detail string `json:"detail"`
	Type   Kind   `json:"type"`
}

func (e *Error) ToResponse() Response {
	return Response{Detail: e.Message, Type: e.Kind}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Incorrect username or password"}
}

func Unauthorized(cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: "Could not validate credentials", Cause: cause}
}

// Parse wraps a malformed-input error; the cause text becomes the detail.
func Parse(cause error) *Error {
	return &Error{Kind: KindParse, Message: cause.Error(), Cause: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// As returns err as an *Error, wrapping unknown errors as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal("internal server error", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
