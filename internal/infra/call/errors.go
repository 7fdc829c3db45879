package call

import (
	"fmt"
	"time"
)

// ServiceError is raised by vendor clients when the remote service returned a
// structured rejection that the generic classifier cannot recognise on its own.
type ServiceError struct {
	Reason     Reason
	Message    string
	RetryAfter time.Duration
}

// NewServiceError creates a ServiceError with a formatted message.
func NewServiceError(reason Reason, format string, args ...any) *ServiceError {
	return &ServiceError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NoRetryError marks an error as a permanent remote failure.
type NoRetryError struct {
	Err error
}

func (e *NoRetryError) Error() string {
	return fmt.Sprintf("no retry: %v", e.Err)
}

func (e *NoRetryError) Unwrap() error {
	return e.Err
}

// NoRetry wraps an error so the wrapper never retries it.
func NoRetry(err error) error {
	return &NoRetryError{Err: err}
}

// RetryAfterError carries a server-requested delay before the next attempt.
type RetryAfterError struct {
	Err   error
	Delay time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %v: %v", e.Delay, e.Err)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// RetryAfter wraps an error with the delay the remote side asked for.
func RetryAfter(d time.Duration, err error) error {
	return &RetryAfterError{Err: err, Delay: d}
}
