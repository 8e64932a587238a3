package httpapi

import "net/http"

// AppError classifies an error into an HTTP status code, the Go
// counterpart of original_source's AppError enum
// (src/backend/error.rs): validation/auth/not-found/conflict map to
// 4xx, everything else to 500.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

func newAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

var (
	errBadRequest   = func(msg string) *AppError { return newAppError(http.StatusBadRequest, msg) }
	errUnauthorized = func(msg string) *AppError { return newAppError(http.StatusUnauthorized, msg) }
	errNotFound     = func(msg string) *AppError { return newAppError(http.StatusNotFound, msg) }
	errConflict     = func(msg string) *AppError { return newAppError(http.StatusConflict, msg) }
	errInternal     = func(msg string) *AppError { return newAppError(http.StatusInternalServerError, msg) }
)
