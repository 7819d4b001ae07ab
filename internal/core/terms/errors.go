package terms

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// classifyHTTPError maps a non-200 status to a transient or fatal error.
func classifyHTTPError(service string, statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("%s error (status %d): %s", service, statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode == http.StatusRequestTimeout:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
