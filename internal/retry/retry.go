// Package retry provides a reusable retry policy for transient upstream
// failures. The policy is a plain value so callers can declare their retry
// behavior once and pass it around; execution is decoupled from logging.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int                   // total attempts including the first
	BaseDelay   time.Duration         // delay before the second attempt
	MaxDelay    time.Duration         // backoff ceiling
	Multiplier  float64               // backoff growth factor
	Retryable   func(err error) bool  // nil means retry every error
}

// DefaultPolicy returns the standard transient-failure policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// Do runs op under the policy. It returns nil on the first success, the
// last error once attempts are exhausted, and immediately stops on a
// non-retryable error or context cancellation.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	mult := p.Multiplier
	if mult <= 1 {
		mult = DefaultMultiplier
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * mult)
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
