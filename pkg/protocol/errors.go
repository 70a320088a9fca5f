package protocol

import (
	"errors"
	"fmt"
)

// NonRetriableError marks a failure that must not be retried: missing or
// malformed configuration, or an external system explicitly rejecting the
// request. The durable step runner fails the step (and the node) immediately
// when it sees one; everything else is treated as transient.
type NonRetriableError struct {
	err error
}

func (e *NonRetriableError) Error() string {
	return e.err.Error()
}

func (e *NonRetriableError) Unwrap() error {
	return e.err
}

// NewNonRetriableError wraps err as permanent.
func NewNonRetriableError(err error) error {
	if err == nil {
		return nil
	}

	return &NonRetriableError{err: err}
}

// NonRetriableErrorf builds a permanent error from a format string.
func NonRetriableErrorf(format string, args ...any) error {
	return &NonRetriableError{err: fmt.Errorf(format, args...)}
}

// IsNonRetriable reports whether err (or anything it wraps) is permanent.
func IsNonRetriable(err error) bool {
	var target *NonRetriableError

	return errors.As(err, &target)
}

// MissingFieldError is the standard validation failure executors raise
// before doing any I/O.
func MissingFieldError(field string) error {
	return NonRetriableErrorf("missing required field '%s'", field)
}
