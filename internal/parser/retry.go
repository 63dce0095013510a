package parser

import (
	"context"
	"errors"
	"time"
)

// Fetch retry defaults
const (
	DefaultFetchAttempts     = 3
	DefaultFetchBaseDelay    = 200 * time.Millisecond
	DefaultFetchMaxDelay     = 2 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// RetryConfig configures exponential backoff for network sources
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the backoff used by New
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultFetchAttempts,
		BaseDelay:   DefaultFetchBaseDelay,
		MaxDelay:    DefaultFetchMaxDelay,
		Multiplier:  DefaultBackoffMultiplier,
	}
}

// permanentError marks a failure that another attempt cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

// retryWithBackoff runs fn until it succeeds, returns a permanent error,
// the attempts run out or ctx is done
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := config.BaseDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}
	return zero, lastErr
}
