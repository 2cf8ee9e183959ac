package edgar

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrNoFiling is returned when a company has no filing matching the
	// requested form type.
	ErrNoFiling = errors.New("no filing matches the requested form")

	// ErrEmptyIndex is returned when a filing's archive directory lists no
	// documents.
	ErrEmptyIndex = errors.New("filing index listed no documents")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (not retryable).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses from EDGAR.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// EDGARError represents an EDGAR-specific error with additional context.
type EDGARError struct {
	StatusCode int
	ErrorClass ErrorClass
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *EDGARError) Error() string {
	msg := fmt.Sprintf("EDGAR %s error", e.ErrorClass)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *EDGARError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the request is pointless. Client errors
// (missing CIKs, absent filings) stay wrong no matter how often they are
// retried; rate limit, server and network errors are transient.
func (e *EDGARError) Permanent() bool {
	return e.ErrorClass == ErrorClassClient
}

// classifyStatus categorizes an HTTP status code for retry handling and
// observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
