package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_DoesNotRetryLogicalErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	logical := errors.New("event not found")
	attempts := 0
	err := policy.Do(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		return logical
	})

	assert.ErrorIs(t, err, logical)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		return errors.New("driver: bad connection")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestRetryPolicy_StopsOnContextCancel(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, "test-op", func(ctx context.Context) error {
		attempts++
		return errors.New("connection reset by peer")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("driver: bad connection"), true},
		{errors.New("pq: duplicate key value violates unique constraint"), false},
		{errors.New("event not found"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retryable, IsRetryableError(tt.err), "error: %v", tt.err)
	}
}
