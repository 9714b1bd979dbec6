package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	// ErrLoad indicates an unreadable or malformed input source.
	ErrLoad = errors.New("load error")
	// ErrSchema indicates a normalization invariant violation (duplicate
	// keys, missing type classification).
	ErrSchema = errors.New("schema error")
	// ErrUnknownColumn indicates a query referenced a column that does not
	// resolve to a question.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidSortField indicates an unrecognized sort key.
	ErrInvalidSortField = errors.New("invalid sort field")
	// ErrClosed indicates an operation was attempted after teardown.
	ErrClosed = errors.New("analyzer is closed")
	// ErrNotFound indicates a missing dataset or resource.
	ErrNotFound = errors.New("not found")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
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

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Map sentinel errors
	if errors.Is(err, ErrUnknownColumn) || errors.Is(err, ErrInvalidSortField) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}
	if errors.Is(err, ErrLoad) || errors.Is(err, ErrSchema) {
		return NewAppError(http.StatusUnprocessableEntity, "Dataset could not be loaded", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
