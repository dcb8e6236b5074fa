// Package retry provides exponential backoff retry for transient failures,
// primarily SSH dials against hosts that are still coming up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type settings struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// Option adjusts retry behavior.
type Option func(*settings)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(s *settings) { s.maxAttempts = n }
}

// WithInitialDelay sets the delay before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(s *settings) { s.initialDelay = d }
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(s *settings) { s.maxDelay = d }
}

// Do runs op until it succeeds, the attempt budget is exhausted, or ctx is
// done. Delays grow exponentially between attempts. Errors wrapped with
// Permanent are returned immediately without further attempts.
func Do(ctx context.Context, op func() error, opts ...Option) error {
	s := settings{
		maxAttempts:  6,
		initialDelay: 1 * time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(&s)
	}

	delay := s.initialDelay
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("aborted after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * s.multiplier)
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", s.maxAttempts, lastErr)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
