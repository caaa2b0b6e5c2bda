package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

// Runner knows how to execute a single attempt of a command.
type Runner interface {
	Run(ctx context.Context, command model.Command) (*model.ExecutionResult, error)
}

// RetrierConfig is the configuration for the retrier.
type RetrierConfig struct {
	Runner Runner
	Logger log.Logger
}

func (c *RetrierConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "retry.Retrier"})
	return nil
}

// Retrier runs a command through the runner up to the policy's attempt
// budget, deciding after each failure whether to try again and how long to
// wait. It is the sole decision point for "try again" vs "give up": the
// runner underneath never retries.
type Retrier struct {
	runner Runner
	logger log.Logger

	// Overridable in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

// NewRetrier creates a new retrier.
func NewRetrier(cfg RetrierConfig) (*Retrier, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Retrier{
		runner: cfg.Runner,
		logger: cfg.Logger,
		sleep:  sleepContext,
		random: rand.Float64,
	}, nil
}

// Run executes the command until it succeeds, the policy gives up, or a
// non-retryable failure occurs. Attempts always run with exit-code
// validation disabled internally, the retrier decides what counts as
// failure. When attempts are exhausted the last observed failure is
// returned, never a synthetic aggregate. Intermediate failures are
// observable only through the policy's on-retry callback.
func (r *Retrier) Run(ctx context.Context, command model.Command, policy model.RetryPolicy) (*model.ExecutionResult, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	attemptCommand := command.WithExitCodeValidation(false)

	delay := policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := r.runner.Run(ctx, attemptCommand)

		var attemptErr error
		var exitCode *int

		switch {
		case err == nil && result.Success():
			return result, nil

		case err == nil:
			// Non-zero exit: the exit-code predicate decides.
			code := result.ExitCode
			exitCode = &code
			lastErr = &model.ExitError{Code: code, Result: *result}
			if !retryExitCode(policy, code) {
				return nil, lastErr
			}

		default:
			attemptErr = err
			lastErr = err

			retryable, code := classify(policy, err)
			exitCode = code
			if !retryable {
				return nil, err
			}
		}

		if attempt == policy.MaxAttempts {
			break
		}

		r.logger.Debugf("Attempt %d/%d failed, retrying in %s: %v", attempt, policy.MaxAttempts, delay, lastErr)
		if cb := policy.OnRetry; cb != nil {
			cb(model.RetryAttempt{
				Attempt:     attempt,
				MaxAttempts: policy.MaxAttempts,
				Err:         attemptErr,
				ExitCode:    exitCode,
				NextDelay:   delay,
			})
		}

		if delay > 0 {
			d := delay
			if policy.Jitter {
				d = time.Duration(float64(d) * (0.5 + r.random()))
			}
			// A cancellation during the wait aborts the whole loop.
			if err := r.sleep(ctx, d); err != nil {
				return nil, err
			}
		}

		// The next round's delay is recomputed only after the sleep: the
		// value handed to the callback for attempt k is the wait before
		// attempt k+1 runs, not a forward-looking preview.
		next := time.Duration(float64(delay) * policy.Multiplier)
		if policy.MaxDelay > 0 && next > policy.MaxDelay {
			next = policy.MaxDelay
		}
		delay = next
	}

	return nil, lastErr
}

// RunCapture executes the retry loop while capturing stdout into a buffer
// and returns the trimmed text of the attempt that finally succeeded.
func (r *Retrier) RunCapture(ctx context.Context, command model.Command, policy model.RetryPolicy) (string, error) {
	buf := &attemptBuffer{BufferSink: stream.NewBufferSink()}

	_, err := r.Run(ctx, command.WithStdout(buf), policy)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

// attemptBuffer resets itself at the start of every attempt so that only the
// final attempt's output survives.
type attemptBuffer struct {
	*stream.BufferSink
}

func (b *attemptBuffer) Consume(ctx context.Context, rd io.Reader) error {
	b.Reset()
	return b.BufferSink.Consume(ctx, rd)
}

// classify decides whether an attempt error is retryable, and extracts the
// exit code that caused it when there is one.
func classify(policy model.RetryPolicy, err error) (retryable bool, exitCode *int) {
	// Timeouts and cancellations are never retried.
	var timeoutErr *model.TimeoutError
	if errors.As(err, &timeoutErr) {
		return false, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}

	// A process that could not start will not start next time either.
	var launchErr *model.LaunchError
	if errors.As(err, &launchErr) {
		return false, nil
	}

	var exitErr *model.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.Code

		// A bare exit error is a plain non-zero exit.
		if directErr, ok := err.(*model.ExitError); ok && directErr == exitErr {
			return retryExitCode(policy, code), &code
		}

		// An error wrapping a non-zero exit: both predicates must allow.
		if policy.RetryOnError == nil || !policy.RetryOnError(err) {
			return false, &code
		}
		return retryExitCode(policy, code), &code
	}

	// Anything else: the error predicate decides, default is no retry.
	if policy.RetryOnError != nil && policy.RetryOnError(err) {
		return true, nil
	}
	return false, nil
}

// retryExitCode consults the exit-code predicate, defaulting to retrying any
// non-zero code.
func retryExitCode(policy model.RetryPolicy, code int) bool {
	if policy.RetryOnExitCode != nil {
		return policy.RetryOnExitCode(code)
	}
	return code != 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
