package xapi

import (
	"errors"
	"fmt"
	"time"
)

// Category is the normalized failure taxonomy for X API calls.
//
// The verification gateway maps categories to outcomes without inspecting raw
// status codes or messages, so every Client implementation must classify its
// failures with one of these.
type Category string

const (
	// ErrorTimeout indicates the call exceeded its deadline
	ErrorTimeout Category = "timeout"

	// ErrorBadData indicates a malformed request or an unparseable response
	ErrorBadData Category = "bad_data"

	// ErrorAuthentication indicates the bearer token was rejected
	ErrorAuthentication Category = "authentication"

	// ErrorProviderOutage indicates the API is unreachable or returned 5xx
	ErrorProviderOutage Category = "provider_outage"

	// ErrorNotFound indicates the user or tweet does not exist
	ErrorNotFound Category = "not_found"

	// ErrorRateLimited indicates quota exhaustion (HTTP 429)
	ErrorRateLimited Category = "rate_limited"

	// ErrorInternal indicates an unexpected local failure
	ErrorInternal Category = "internal"
)

// RateLimit is the quota snapshot reported by the x-rate-limit-* headers.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// RetryAfter returns how long until the window resets, relative to now.
func (r *RateLimit) RetryAfter(now time.Time) time.Duration {
	if r == nil || r.Reset.IsZero() || !r.Reset.After(now) {
		return 0
	}
	return r.Reset.Sub(now)
}

// Error wraps an X API failure with its category.
type Error struct {
	Category   Category
	Op         string
	Message    string
	Underlying error
	Retryable  bool
	RateLimit  *RateLimit
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("xapi %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("xapi %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// ErrorCategory exposes the category to tracing.
func (e *Error) ErrorCategory() string {
	return string(e.Category)
}

// Expected reports failures that are answers rather than faults: a missing
// user or tweet, or a spent quota.
func (e *Error) Expected() bool {
	return e.Category == ErrorNotFound || e.Category == ErrorRateLimited
}

// NewError builds an Error. Only timeouts and outages are retryable; a
// rate-limited call is surfaced with its reset time instead of being retried.
func NewError(category Category, op, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Op:         op,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorProviderOutage,
	}
}

// WithRateLimit attaches a quota snapshot and returns e.
func (e *Error) WithRateLimit(rl *RateLimit) *Error {
	e.RateLimit = rl
	return e
}

// IsRetryable reports whether err is worth one more attempt.
func IsRetryable(err error) bool {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Retryable
	}
	return false
}

// CategoryOf extracts the category of err. Foreign errors are internal.
func CategoryOf(err error) Category {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Category
	}
	return ErrorInternal
}

// RateLimitOf returns the quota snapshot attached to err, if any.
func RateLimitOf(err error) *RateLimit {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.RateLimit
	}
	return nil
}
