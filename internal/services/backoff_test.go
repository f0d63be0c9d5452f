package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		Stage:        "test op",
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		Timeout:      100 * time.Millisecond,
	}
}

func TestWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := WithBackoff(context.Background(), testRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_RetriesTransientFailures(t *testing.T) {
	calls := 0
	result, err := WithBackoff(context.Background(), testRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("transient failure")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_ExhaustsRetryBudget(t *testing.T) {
	calls := 0
	_, err := WithBackoff(context.Background(), testRetryConfig(2), func(ctx context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("persistent failure")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "maxRetries=2 means 3 attempts total")
	assert.Contains(t, err.Error(), "persistent failure")
}

func TestWithBackoff_RateLimitAbortsImmediately(t *testing.T) {
	calls := 0
	_, err := WithBackoff(context.Background(), testRetryConfig(5), func(ctx context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("googleapi: Error 429: RESOURCE_EXHAUSTED")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "rate limits must not be retried")

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Greater(t, rl.RetryAfter, time.Duration(0))
}

func TestWithBackoff_AttemptTimeoutAborts(t *testing.T) {
	cfg := testRetryConfig(5)
	cfg.Timeout = 10 * time.Millisecond

	calls := 0
	_, err := WithBackoff(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "a hung call must not be retried")

	var to *TimeoutError
	require.ErrorAs(t, err, &to)
	assert.Equal(t, "test op", to.Stage)
}

func TestWithBackoff_ParentCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := WithBackoff(ctx, testRetryConfig(5), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", fmt.Errorf("failure before cancel noticed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
