package wrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/13cyberpunk02/SolimusWrapper/internal/exec"
	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/retry"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

// Command is the immutable specification of what to run.
type Command = model.Command

// ExecutionResult is the outcome of a single execution attempt.
type ExecutionResult = model.ExecutionResult

// RetryPolicy controls how RunWithRetry re-runs a failed command.
type RetryPolicy = model.RetryPolicy

// RetryAttempt is the event record handed to a policy's on-retry callback.
type RetryAttempt = model.RetryAttempt

// EnvVar is one entry of a command's environment overlay.
type EnvVar = model.EnvVar

// LaunchError is returned when the OS refuses to create the process.
type LaunchError = model.LaunchError

// TimeoutError is returned when the configured execution timeout fires.
type TimeoutError = model.TimeoutError

// ExitError is returned for a validated non-zero exit.
type ExitError = model.ExitError

// OutputSink consumes a process output stream.
type OutputSink = stream.OutputSink

// InputSource produces a process input stream.
type InputSource = stream.InputSource

// BufferSink accumulates output in memory, safe for concurrent writes.
type BufferSink = stream.BufferSink

// NewCommand creates a command for the given executable path and arguments.
func NewCommand(path string, args ...string) Command {
	return model.NewCommand(path, args...)
}

// Discard returns a sink that throws away everything it receives.
func Discard() OutputSink { return stream.Discard() }

// NewBufferSink returns an empty in-memory sink.
func NewBufferSink() *BufferSink { return stream.NewBufferSink() }

// NewLineSink returns a sink invoking fn once per output line.
func NewLineSink(fn func(line string)) OutputSink { return stream.NewLineSink(fn) }

// NewWriterSink returns a sink copying output into w.
func NewWriterSink(w io.Writer) OutputSink { return stream.NewWriterSink(w) }

// NewFileSink returns a sink writing output to a newly created file.
func NewFileSink(path string) OutputSink { return stream.NewFileSink(path) }

// MultiSink returns a sink that fans the stream out to every given sink.
func MultiSink(sinks ...OutputSink) OutputSink { return stream.MultiSink(sinks...) }

// NoInput returns a source that provides no bytes at all.
func NoInput() InputSource { return stream.NoInput() }

// NewStringSource returns a source feeding the given text to stdin.
func NewStringSource(s string) InputSource { return stream.NewStringSource(s) }

// NewBytesSource returns a source feeding the given bytes to stdin.
func NewBytesSource(b []byte) InputSource { return stream.NewBytesSource(b) }

// NewReaderSource returns a source streaming r to stdin.
func NewReaderSource(r io.Reader) InputSource { return stream.NewReaderSource(r) }

// NewFileSource returns a source streaming a file to stdin.
func NewFileSource(path string) InputSource { return stream.NewFileSource(path) }

// DefaultRetryPolicy returns the default retry policy: 3 attempts, 1s
// initial delay, x2 backoff capped at 30s, jitter enabled.
func DefaultRetryPolicy() RetryPolicy { return model.DefaultRetryPolicy() }

// ExponentialRetryPolicy returns a x2 backoff policy with jitter.
func ExponentialRetryPolicy(maxAttempts int, initialDelay time.Duration) RetryPolicy {
	return model.ExponentialRetryPolicy(maxAttempts, initialDelay)
}

// LinearRetryPolicy returns a constant-delay policy without jitter.
func LinearRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	return model.LinearRetryPolicy(maxAttempts, delay)
}

// ImmediateRetryPolicy returns a policy that retries without waiting.
func ImmediateRetryPolicy(maxAttempts int) RetryPolicy {
	return model.ImmediateRetryPolicy(maxAttempts)
}

// Run executes one attempt of the command.
func Run(ctx context.Context, command Command) (*ExecutionResult, error) {
	runner, err := exec.NewRunner(exec.RunnerConfig{Logger: log.Noop})
	if err != nil {
		return nil, fmt.Errorf("could not create runner: %w", err)
	}

	return runner.Run(ctx, command)
}

// RunWithRetry executes the command under the given retry policy.
func RunWithRetry(ctx context.Context, command Command, policy RetryPolicy) (*ExecutionResult, error) {
	retrier, err := newRetrier()
	if err != nil {
		return nil, err
	}

	return retrier.Run(ctx, command, policy)
}

// Output executes one attempt of the command and returns its trimmed stdout.
func Output(ctx context.Context, command Command) (string, error) {
	buf := stream.NewBufferSink()

	_, err := Run(ctx, command.WithStdout(buf))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

// OutputWithRetry executes the command under the given retry policy and
// returns the trimmed stdout of the attempt that finally succeeded.
func OutputWithRetry(ctx context.Context, command Command, policy RetryPolicy) (string, error) {
	retrier, err := newRetrier()
	if err != nil {
		return "", err
	}

	return retrier.RunCapture(ctx, command, policy)
}

func newRetrier() (*retry.Retrier, error) {
	runner, err := exec.NewRunner(exec.RunnerConfig{Logger: log.Noop})
	if err != nil {
		return nil, fmt.Errorf("could not create runner: %w", err)
	}

	retrier, err := retry.NewRetrier(retry.RetrierConfig{Runner: runner, Logger: log.Noop})
	if err != nil {
		return nil, fmt.Errorf("could not create retrier: %w", err)
	}

	return retrier, nil
}
