package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyResume is returned before any model call when the resume text is
// empty after trimming.
var ErrEmptyResume = errors.New("resume text is required")

// RateLimitError signals an upstream 429. The caller should retry after the
// suggested delay instead of hammering the provider.
type RateLimitError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("model provider rate limited, retry after %s: %v", e.RetryAfter, e.Cause)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// TimeoutError signals that a model call exceeded its per-attempt budget.
type TimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.Timeout)
}

// isRateLimited detects 429-class failures across the provider's error
// shapes. The genai client surfaces these as status text, so string
// inspection is the reliable common denominator.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}
