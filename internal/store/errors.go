package store

import (
	"errors"
	"fmt"
	"net/http"
)

var errAlreadyCommitted = errors.New("batch already committed")

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "document not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "document already exists",
	}

	// ErrKindMismatch means a document at the requested path carried a
	// different kind tag than the accessor expected. The document never
	// crosses the adapter boundary in that case.
	ErrKindMismatch = &Error{
		Code:    http.StatusInternalServerError,
		Message: "document kind mismatch",
	}

	// ErrWriteFailed wraps a rejected write. Nothing was applied; the
	// operation is safe to retry.
	ErrWriteFailed = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "store write failed",
	}

	// ErrBatchTooLarge means a batch exceeded MaxBatchOps before commit.
	// Callers that can split must split; the batch was not applied.
	ErrBatchTooLarge = &Error{
		Code:    http.StatusBadRequest,
		Message: "batch exceeds operation cap",
	}
)
