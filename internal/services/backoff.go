package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// RetryConfig tunes one call site of WithBackoff. Each site passes its own
// budget: cheap calls get generous retries, the expensive deep-analysis call
// gets few.
type RetryConfig struct {
	Stage        string
	MaxRetries   int
	InitialDelay time.Duration
	Timeout      time.Duration
}

// WithBackoff invokes op with a per-attempt timeout, retrying transient
// failures with exponential delay (InitialDelay * 2^attempt). Rate limits and
// attempt timeouts abort immediately with distinguishable errors so callers
// never retry-storm a throttled provider or stack timeouts.
func WithBackoff[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result, err := op(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if isRateLimited(err) {
			return zero, &RateLimitError{RetryAfter: cfg.InitialDelay * 4, Cause: err}
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, &TimeoutError{Stage: cfg.Stage, Timeout: cfg.Timeout}
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s cancelled: %w", cfg.Stage, ctx.Err())
		}

		if attempt < cfg.MaxRetries {
			delay := cfg.InitialDelay * time.Duration(1<<attempt)
			log.Printf("⚠️ %s attempt %d failed: %v. Retrying in %s...\n", cfg.Stage, attempt+1, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("%s cancelled: %w", cfg.Stage, ctx.Err())
			}
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", cfg.Stage, cfg.MaxRetries+1, lastErr)
}
