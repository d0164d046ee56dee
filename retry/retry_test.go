// ABOUTME: This file tests the retry mechanism with exponential backoff and jitter
// ABOUTME: Covers classifier behavior, attempt exhaustion, and context cancellation
package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat-collector/logger"
)

var errTemporary = errors.New("temporary error")

func fastConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   maxAttempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2,
		MaxJitter:     time.Millisecond,
	}
}

func TestRetrier_Do(t *testing.T) {
	tests := map[string]struct {
		operation     func() func() error
		classifier    ErrorClassifier
		expectedCalls int
		wantErr       bool
	}{
		"success on first attempt": {
			operation: func() func() error {
				return func() error { return nil }
			},
			classifier:    func(error) bool { return true },
			expectedCalls: 1,
		},
		"success on second attempt": {
			operation: func() func() error {
				attempt := 0
				return func() error {
					attempt++
					if attempt == 1 {
						return errTemporary
					}
					return nil
				}
			},
			classifier:    func(error) bool { return true },
			expectedCalls: 2,
		},
		"failure after max attempts": {
			operation: func() func() error {
				return func() error { return errTemporary }
			},
			classifier:    func(error) bool { return true },
			expectedCalls: 3,
			wantErr:       true,
		},
		"non-retryable error fails immediately": {
			operation: func() func() error {
				return func() error { return errors.New("bad request") }
			},
			classifier:    func(err error) bool { return errors.Is(err, errTemporary) },
			expectedCalls: 1,
			wantErr:       true,
		},
		"nil classifier never retries": {
			operation: func() func() error {
				return func() error { return errTemporary }
			},
			classifier:    nil,
			expectedCalls: 1,
			wantErr:       true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			op := tc.operation()
			retrier := NewRetrier(fastConfig(3), tc.classifier, logger.Discard())

			err := retrier.Do(context.Background(), func() error {
				calls++
				return op()
			})

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedCalls, calls)
		})
	}
}

func TestRetrier_ContextCancellationDuringBackoff(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:   5,
		BaseDelay:     time.Minute,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
	retrier := NewRetrier(config, func(error) bool { return true }, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := retrier.Do(ctx, func() error {
		calls++
		return errTemporary
	})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "cancelled"))
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCalculateDelay_ExponentialAndCapped(t *testing.T) {
	retrier := NewRetrier(RetryConfig{
		MaxAttempts:   5,
		BaseDelay:     time.Second,
		MaxDelay:      4 * time.Second,
		BackoffFactor: 2,
		MaxJitter:     0,
	}, nil, logger.Discard())

	assert.Equal(t, time.Second, retrier.calculateDelay(1))
	assert.Equal(t, 2*time.Second, retrier.calculateDelay(2))
	assert.Equal(t, 4*time.Second, retrier.calculateDelay(3))
	// Capped at MaxDelay from here on.
	assert.Equal(t, 4*time.Second, retrier.calculateDelay(4))
}

func TestCalculateDelay_JitterIsAdditive(t *testing.T) {
	retrier := NewRetrier(RetryConfig{
		MaxAttempts:   5,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
		MaxJitter:     50 * time.Millisecond,
	}, nil, logger.Discard())

	for i := 0; i < 50; i++ {
		d := retrier.calculateDelay(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}

func TestRateLimitPolicy(t *testing.T) {
	config := RateLimitPolicy()
	assert.Equal(t, 5, config.MaxAttempts)
	assert.Equal(t, time.Second, config.BaseDelay)
	assert.Equal(t, 60*time.Second, config.MaxDelay)
	assert.Equal(t, 2.0, config.BackoffFactor)
	assert.Equal(t, 5*time.Second, config.MaxJitter)
}
