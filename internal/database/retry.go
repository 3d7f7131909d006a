package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RetryPolicy wraps store calls in bounded exponential backoff. Reads are
// always safe to retry; writes must be idempotency-keyed before opting in.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
}

// Do runs op, retrying transient store failures with exponential backoff.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return err
		}

		if attempt < p.MaxAttempts {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			slog.Warn("Store operation failed, retrying",
				"operation", name, "attempt", attempt, "max_attempts", p.MaxAttempts,
				"delay", delay, "error", err)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, p.MaxAttempts, lastErr)
}

// IsRetryableError reports whether err looks like a transient connection
// problem rather than a logical failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"driver: bad connection",
	}

	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}
