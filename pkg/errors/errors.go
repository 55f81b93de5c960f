// Package errors classifies failures so the HTTP layer can map them to status codes
// without knowing where they came from.
package errors

import (
	"errors"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	// ErrorTypeForbidden means the caller is signed in but may not act on the resource
	ErrorTypeForbidden ErrorType = "FORBIDDEN"
	ErrorTypeInternal  ErrorType = "INTERNAL"
	// ErrorTypeExternal marks a failure of a backing service other than the database
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

var statusByType = map[ErrorType]int{
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeExternal:     http.StatusBadGateway,
}

// AppError is a classified error. Message is safe to show to callers for client-side
// types; Err carries the cause and is only logged.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	s := string(e.Type) + ": " + e.Message
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the response status for the error's type
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ClientFacing reports whether the caller caused the error, making Message safe to return
func (e *AppError) ClientFacing() bool {
	return e.HTTPStatus() < http.StatusInternalServerError
}

func newError(t ErrorType, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Err: cause}
}

func NewNotFoundError(message string) *AppError {
	return newError(ErrorTypeNotFound, message, nil)
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, nil)
}

func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, message, nil)
}

func NewUnauthorizedError(message string) *AppError {
	return newError(ErrorTypeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return newError(ErrorTypeForbidden, message, nil)
}

// NewInternalError wraps a storage or programming failure
func NewInternalError(message string, err error) *AppError {
	return newError(ErrorTypeInternal, message, err)
}

// NewExternalError wraps a failure of a backing service such as the search cluster
func NewExternalError(message string, err error) *AppError {
	return newError(ErrorTypeExternal, message, err)
}

// TypeOf returns the type of the first AppError in err's chain; unclassified errors are
// internal
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

func IsNotFound(err error) bool     { return is(err, ErrorTypeNotFound) }
func IsValidation(err error) bool   { return is(err, ErrorTypeValidation) }
func IsConflict(err error) bool     { return is(err, ErrorTypeConflict) }
func IsUnauthorized(err error) bool { return is(err, ErrorTypeUnauthorized) }
func IsForbidden(err error) bool    { return is(err, ErrorTypeForbidden) }
func IsExternal(err error) bool     { return is(err, ErrorTypeExternal) }
