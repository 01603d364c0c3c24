// Package apperror defines the error taxonomy shared by the HTTP handlers and
// the car service. Each AppError carries a Type that maps to one HTTP status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorises application errors.
type ErrorType int

const (
	// Internal is an unexpected store or transport failure.
	Internal ErrorType = iota
	// Unauthenticated means no token was presented or it failed verification.
	Unauthenticated
	// Validation means the caller sent malformed or out-of-bounds input.
	Validation
	// NotFound means the record is absent or not owned by the caller.
	NotFound
	// Conflict means a uniqueness constraint was violated.
	Conflict
)

// AppError is an error with a user-facing message and an optional cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

func NewUnauthenticated(message string, err error) *AppError {
	return New(Unauthenticated, message, err)
}

func NewValidation(message string, err error) *AppError {
	return New(Validation, message, err)
}

func NewNotFound(message string, err error) *AppError {
	return New(NotFound, message, err)
}

func NewConflict(message string, err error) *AppError {
	return New(Conflict, message, err)
}

func NewInternal(message string, err error) *AppError {
	return New(Internal, message, err)
}

// TypeOf reports the type of the first AppError in err's chain.
// Errors outside the taxonomy are Internal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return Internal
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// Response is the JSON body written for failed requests.
type Response struct {
	Error string `json:"error"`
}

// ToResponse converts err into the client payload and status code. Internal
// errors never leak their cause.
func ToResponse(err error) (int, Response) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, Response{Error: "internal error"}
	}
	if appErr.Type == Internal {
		return http.StatusInternalServerError, Response{Error: "internal error"}
	}
	return appErr.StatusCode(), Response{Error: appErr.Message}
}
