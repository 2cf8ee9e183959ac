package batch

import "time"

// ExtractionResult records the terminal outcome of a single item. Exactly one
// of Payload and Err is meaningful.
type ExtractionResult[I, R any] struct {
	// Item is the input the operation ran against.
	Item I

	// Payload holds the operation output. Only valid when Err is nil.
	Payload R

	// Err is the final error for failed items, nil for successes.
	Err error

	// Attempts is the number of operation invocations spent on this item.
	Attempts int

	// Elapsed is the wall time from the item's first admission to its
	// terminal resolution, including rate-limit waits and backoff sleeps.
	Elapsed time.Duration
}

// Success reports whether the item resolved with a payload.
func (r ExtractionResult[I, R]) Success() bool {
	return r.Err == nil
}

// Label returns the item's display label.
func (r ExtractionResult[I, R]) Label() string {
	return itemLabel(r.Item)
}

// Result aggregates a complete batch run. Every input item appears in exactly
// one of Successful and Failed.
type Result[I, R any] struct {
	Successful []ExtractionResult[I, R]
	Failed     []ExtractionResult[I, R]

	// TotalDuration is the wall time of the whole Process call.
	TotalDuration time.Duration

	// RequestsMade counts operation invocations across all items and
	// attempts, successful or not.
	RequestsMade int64
}

// SuccessCount returns the number of items that resolved successfully.
func (r *Result[I, R]) SuccessCount() int {
	return len(r.Successful)
}

// FailureCount returns the number of items that terminally failed.
func (r *Result[I, R]) FailureCount() int {
	return len(r.Failed)
}

// Total returns the number of items the batch resolved.
func (r *Result[I, R]) Total() int {
	return len(r.Successful) + len(r.Failed)
}

// SuccessRate returns the fraction of items that succeeded, 0.0 for an
// empty run.
func (r *Result[I, R]) SuccessRate() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(len(r.Successful)) / float64(total)
}
