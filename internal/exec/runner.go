package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

// RunnerConfig is the configuration for the runner.
type RunnerConfig struct {
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "exec.Runner"})
	return nil
}

// Runner executes exactly one attempt of a command: it starts the child
// process, pumps stdin/stdout/stderr concurrently, enforces the timeout and
// caller cancellation, and validates the exit code. It never retries.
type Runner struct {
	logger log.Logger
}

// NewRunner creates a new runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{logger: cfg.Logger}, nil
}

// Run executes one attempt of the command to completion or failure.
//
// Error taxonomy: *model.LaunchError when the OS refuses to start the
// process, *model.TimeoutError when the configured timeout fires (the
// process tree is terminated first), the caller's context error on
// cancellation (tree terminated as well), and *model.ExitError for a
// validated non-zero exit. Anything else surfaced while pumping or waiting
// is returned wrapped.
func (r *Runner) Run(ctx context.Context, command model.Command) (*model.ExecutionResult, error) {
	if err := command.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	execID := ulid.Make().String()
	logger := r.logger.WithValues(log.Kv{"execution": execID, "binary": command.Path()})

	// Compose the effective cancellation signal. The timeout is a derived
	// cancellation source whose cause disambiguates it from the caller's
	// cancellation when classifying the failure.
	runCtx := ctx
	if d, ok := command.Timeout(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeoutCause(ctx, d, &model.TimeoutError{Timeout: d})
		defer cancel()
	}

	cmd := osexec.Command(command.Path(), command.Args()...)
	if dir, ok := command.WorkDir(); ok {
		cmd.Dir = dir
	}
	cmd.Env = buildEnv(os.Environ(), command.EnvOverlay())
	setProcAttributes(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("could not open stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("could not open stderr pipe: %w", err)
	}

	// Stdin is closed immediately when no source is configured, which is
	// what a nil cmd.Stdin gives us.
	source, hasInput := command.Stdin()
	var stdinPipe io.WriteCloser
	if hasInput {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("could not open stdin pipe: %w", err)
		}
	}

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &model.LaunchError{Path: command.Path(), Err: err}
	}
	logger = logger.WithValues(log.Kv{"pid": cmd.Process.Pid})
	logger.Debugf("Process started")
	if cmdLogger := command.Logger(); cmdLogger != nil {
		cmdLogger.Infof("Started %s", displayName(command))
	}

	// A fired cancellation must unblock pumps stuck on live pipes, so the
	// whole process tree is killed as soon as the composed signal fires. A
	// pump that fails mid-stream cancels the same signal: its pipe would
	// otherwise fill up, block the child forever and starve the sibling
	// pumps of their EOF.
	pumpCtx, cancelPumps := context.WithCancelCause(runCtx)
	defer cancelPumps(nil)

	waitDone := make(chan struct{})
	go func() {
		select {
		case <-pumpCtx.Done():
			killTree(cmd.Process)
		case <-waitDone:
		}
	}()

	// The three pumps always run concurrently, never sequentially. Writing
	// stdin to completion before draining stdout/stderr would deadlock any
	// child that fills its output pipe while still reading input.
	var g errgroup.Group
	pump := func(fn func() error) {
		g.Go(func() error {
			err := fn()
			if err != nil {
				cancelPumps(err)
			}
			return err
		})
	}
	pump(func() error {
		return r.outputSink(command, command.Stdout()).Consume(pumpCtx, decodeReader(command, stdoutPipe))
	})
	pump(func() error {
		return r.outputSink(command, command.Stderr()).Consume(pumpCtx, decodeReader(command, stderrPipe))
	})
	if hasInput {
		pump(func() error {
			defer stdinPipe.Close()
			err := source.Provide(pumpCtx, encodeWriter(command, stdinPipe))
			// The child may exit without reading all its input.
			if isClosedPipe(err) {
				return nil
			}
			return err
		})
	}
	pumpErr := g.Wait()

	// The pumps finished once the child closed its output handles; the exit
	// code is still confirmed independently.
	waitErr := cmd.Wait()
	close(waitDone)
	finishedAt := time.Now()

	// Classify a fired cancellation, re-checked after completion on purpose:
	// a process that exited at the same instant the timeout fired still
	// reports the timeout, bounded execution time takes precedence over the
	// race. Termination errors are swallowed, the cause already explains the
	// outcome.
	if runCtx.Err() != nil {
		killTree(cmd.Process)
		cause := context.Cause(runCtx)

		var timeoutErr *model.TimeoutError
		if errors.As(cause, &timeoutErr) {
			logger.Warningf("Process killed: %v", timeoutErr)
			return nil, timeoutErr
		}

		logger.Debugf("Process killed: execution cancelled")
		return nil, cause
	}

	if pumpErr != nil {
		// A sibling cancelled by a failed pump may win the errgroup race with
		// a bare context error; the cancellation cause is the pump failure.
		if errors.Is(pumpErr, context.Canceled) {
			if cause := context.Cause(pumpCtx); cause != nil && !errors.Is(cause, context.Canceled) {
				pumpErr = cause
			}
		}
		return nil, fmt.Errorf("could not pump process streams: %w", pumpErr)
	}

	exitCode := cmd.ProcessState.ExitCode()
	if waitErr != nil {
		var exitErr *osexec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("could not wait for process: %w", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &model.ExecutionResult{
		ExitCode:   exitCode,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}

	// The exit-code callback fires unconditionally, validation or not.
	if cb := command.ExitCallback(); cb != nil {
		cb(exitCode)
	}

	logger.Debugf("Process finished with exit code %d in %s", exitCode, result.Duration())
	if cmdLogger := command.Logger(); cmdLogger != nil {
		cmdLogger.Infof("Finished %s: exit code %d (%s)", displayName(command), exitCode, result.Duration())
	}

	if command.ValidatesExitCode() && exitCode != 0 {
		return nil, &model.ExitError{Code: exitCode, Result: *result}
	}

	return result, nil
}

// outputSink tees per-line logging onto a sink when the command carries a
// logger.
func (r *Runner) outputSink(command model.Command, sink stream.OutputSink) stream.OutputSink {
	logger := command.Logger()
	if logger == nil {
		return sink
	}

	return stream.MultiSink(sink, stream.NewLineSink(func(line string) {
		logger.Debugf("%s", line)
	}))
}

func decodeReader(command model.Command, r io.Reader) io.Reader {
	enc := command.Encoding()
	if enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

func encodeWriter(command model.Command, w io.Writer) io.Writer {
	enc := command.Encoding()
	if enc == nil {
		return w
	}
	return transform.NewWriter(w, enc.NewEncoder())
}

// buildEnv applies the overlay over the inherited environment. Removals are
// applied before upserts so override order is well defined. A nil result
// makes os/exec inherit the parent environment untouched.
func buildEnv(base []string, overlay []model.EnvVar) []string {
	if len(overlay) == 0 {
		return nil
	}

	env := make(map[string]string, len(base))
	keys := make([]string, 0, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			if _, exists := env[k]; !exists {
				keys = append(keys, k)
			}
			env[k] = v
		}
	}

	for _, e := range overlay {
		if e.Unset {
			delete(env, e.Name)
		}
	}
	for _, e := range overlay {
		if e.Unset {
			continue
		}
		if _, exists := env[e.Name]; !exists {
			keys = append(keys, e.Name)
		}
		env[e.Name] = e.Value
	}

	sort.Strings(keys)
	result := make([]string, 0, len(env))
	for _, k := range keys {
		if v, ok := env[k]; ok {
			result = append(result, k+"="+v)
		}
	}
	return result
}

func displayName(command model.Command) string {
	args := command.Args()
	if len(args) == 0 {
		return command.Path()
	}
	return command.Path() + " " + strings.Join(args, " ")
}

// isClosedPipe reports whether err is the result of writing to the stdin
// pipe of a process that already closed its end or exited.
func isClosedPipe(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE)
}
