package batch

import (
	"errors"
	"fmt"
)

// Sentinel errors recorded on failed items.
var (
	// ErrCancelled marks items that could not run to completion because the
	// batch context was cancelled.
	ErrCancelled = errors.New("batch cancelled")

	// ErrAttemptsExhausted marks items whose final attempt failed.
	ErrAttemptsExhausted = errors.New("attempts exhausted")

	// ErrOperationPanicked marks attempts aborted by a panicking operation.
	ErrOperationPanicked = errors.New("operation panicked")
)

// Labeled lets items provide a human-readable identifier for progress
// callbacks and logs. Items that do not implement it are rendered with
// fmt.Sprint.
type Labeled interface {
	Label() string
}

func itemLabel(item any) string {
	if l, ok := item.(Labeled); ok {
		return l.Label()
	}
	return fmt.Sprint(item)
}

// permanentError marks a wrapped error as not worth retrying.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Permanent() bool { return true }

// Permanent wraps err so the processor will not retry it. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether any error in err's chain declares itself
// non-retryable through a Permanent() bool method. Error types can implement
// the method directly instead of wrapping with Permanent; the processor
// treats both the same way.
func IsPermanent(err error) bool {
	var p interface{ Permanent() bool }
	if errors.As(err, &p) {
		return p.Permanent()
	}
	return false
}
