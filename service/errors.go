package service

import (
	"errors"
	"fmt"
)

// ErrUploadRejected is returned when a publish response has neither an asset id nor an operation id
var ErrUploadRejected = errors.New("upload rejected: response has no asset id and no operation id")

// ErrOperationTimeout is returned when an operation does not resolve within the configured timeout
var ErrOperationTimeout = errors.New("operation timed out")

// OperationError reports an operation that failed or completed without a usable asset id
type OperationError struct {
	OperationID string
	Reason      string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s", e.OperationID, e.Reason)
}

// StatusError is an HTTP response with status >= 400
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// RetryError aggregates a call that failed on every attempt. Err is the last cause.
type RetryError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// IsStatusFailure reports whether err ended with an HTTP status rejection rather than a transport error
func IsStatusFailure(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
