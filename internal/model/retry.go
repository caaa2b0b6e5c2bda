package model

import (
	"fmt"
	"time"
)

// RetryPolicy controls how the retrier re-runs a failed command. It is
// constructed by the caller (or one of the presets) and consumed read-only
// for the duration of one retry loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first (>= 1).
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// Multiplier scales the delay after every wait.
	Multiplier float64
	// MaxDelay caps the computed delay. Zero means no cap.
	MaxDelay time.Duration
	// Jitter scales each actual sleep by a uniform random factor in
	// [0.5, 1.5) to desynchronize concurrent retriers.
	Jitter bool
	// RetryOnError decides whether an attempt error (other than non-zero
	// exits, timeouts and cancellations) is retried. Nil means never.
	RetryOnError func(err error) bool
	// RetryOnExitCode decides whether a non-zero exit code is retried.
	// Nil means retry any non-zero code.
	RetryOnExitCode func(exitCode int) bool
	// OnRetry is invoked once per failed attempt, before the wait.
	OnRetry func(attempt RetryAttempt)
}

// RetryAttempt is the event record handed to the on-retry callback after a
// failed attempt.
type RetryAttempt struct {
	// Attempt is the 1-based number of the attempt that just failed.
	Attempt int
	// MaxAttempts is the policy's total attempt budget.
	MaxAttempts int
	// Err is the error that caused the failure, nil for plain non-zero exits.
	Err error
	// ExitCode is the exit code that caused the failure, nil when the
	// attempt failed before producing one.
	ExitCode *int
	// NextDelay is the wait before the next attempt (before jitter).
	NextDelay time.Duration
}

// Validate validates the retry policy.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1: %w", ErrNotValid)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative: %w", ErrNotValid)
	}
	if p.Multiplier < 0 {
		return fmt.Errorf("multiplier cannot be negative: %w", ErrNotValid)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay cannot be negative: %w", ErrNotValid)
	}
	return nil
}

// DefaultRetryPolicy returns the default policy: 3 attempts, 1s initial
// delay, x2 backoff capped at 30s, jitter enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Jitter:       true,
	}
}

// ExponentialRetryPolicy returns a x2 backoff policy capped at 30s with
// jitter enabled.
func ExponentialRetryPolicy(maxAttempts int, initialDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Jitter:       true,
	}
}

// LinearRetryPolicy returns a constant-delay policy without jitter.
func LinearRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: delay,
		Multiplier:   1.0,
		Jitter:       false,
	}
}

// ImmediateRetryPolicy returns a policy that retries without waiting.
func ImmediateRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Multiplier:  1.0,
	}
}
