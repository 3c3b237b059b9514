package http_utils

import (
	"context"
	"time"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Second,
	}
}

// Do runs op, retrying retriable failures with exponential backoff: the delay
// before retry k is BaseDelay * 2^k. Non-retriable failures propagate
// immediately, and once the ceiling is hit the last failure is returned
// unchanged so the root cause stays visible in logs.
func Do[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := op()
		if err == nil {
			return result, nil
		}

		if !IsRetriable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}
