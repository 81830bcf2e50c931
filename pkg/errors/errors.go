// Package errors defines the sentinel errors shared by the indexer, the
// persistence codec and the search service, plus an AppError wrapper that
// carries an HTTP status for the search API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Input errors: recovered per document, counted in the build report.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// Corruption and usage errors: fatal for the build.
	ErrDuplicateDocument = errors.New("document already merged")
	ErrCorruptIndex      = errors.New("index invariant violated")
	ErrAlreadyScored     = errors.New("index already scored")
	ErrNotScored         = errors.New("index not scored")

	// Persistence errors: fatal at searcher startup.
	ErrCorruptIndexFile = errors.New("corrupt index file")

	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Is and As re-export the standard helpers so callers importing this package
// under its own name do not also need the standard errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotScored), errors.Is(err, ErrCorruptIndexFile):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
