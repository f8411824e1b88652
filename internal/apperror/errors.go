// Package apperror carries HTTP status and client-facing messages through
// the service and handler layers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every AppError built by a constructor wraps one of them,
// so errors.Is works on the kind.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

var kinds = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrValidation, http.StatusBadRequest},
	{ErrConflict, http.StatusConflict},
}

// AppError is an error with the status and message a client should see.
// Err is kept for logging and errors.Is; it is never sent to the client.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Field      string // set for validation failures, e.g. "platforms[1].name"
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind error, status int, message string) *AppError {
	return &AppError{Err: kind, Message: message, StatusCode: status}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func NotFound(resource string) *AppError {
	return newError(ErrNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

func BadRequest(message string) *AppError {
	return newError(ErrBadRequest, http.StatusBadRequest, message)
}

func ValidationError(field, message string) *AppError {
	e := newError(ErrValidation, http.StatusBadRequest, message)
	e.Field = field
	return e
}

func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, http.StatusUnauthorized, orDefault(message, "not authorized"))
}

func Forbidden(message string) *AppError {
	return newError(ErrForbidden, http.StatusForbidden, orDefault(message, "forbidden"))
}

func Conflict(message string) *AppError {
	return newError(ErrConflict, http.StatusConflict, message)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return newError(err, http.StatusInternalServerError, "an internal error occurred")
}

// From returns the AppError in err's chain, or builds one from the sentinel
// kind err wraps. Anything else is internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return &AppError{Err: err, Message: err.Error(), StatusCode: k.status}
		}
	}
	return Internal(err)
}

// GetStatusCode returns the HTTP status for err, 500 when unknown.
func GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).StatusCode
}

// GetMessage returns the client-facing message of err.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
