package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/storage"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

// Runner knows how to execute a single attempt of a command.
type Runner interface {
	Run(ctx context.Context, command model.Command) (*model.ExecutionResult, error)
}

// Retrier knows how to execute a command under a retry policy.
type Retrier interface {
	Run(ctx context.Context, command model.Command, policy model.RetryPolicy) (*model.ExecutionResult, error)
}

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Runner     Runner
	Retrier    Retrier
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Retrier == nil {
		return fmt.Errorf("retrier is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service executes commands and records them in the execution history.
type Service struct {
	runner  Runner
	retrier Retrier
	repo    storage.Repository
	logger  log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		runner:  cfg.Runner,
		retrier: cfg.Retrier,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
	}, nil
}

// Request contains the parameters for executing a command.
type Request struct {
	Binary  string
	Args    []string
	WorkDir string
	Env     []model.EnvVar
	// Timeout bounds the execution. Zero means unbounded.
	Timeout time.Duration
	// ValidateExitCode makes a non-zero exit an error of the run.
	ValidateExitCode bool
	// Stdin feeds the process input. Nil closes stdin immediately.
	Stdin stream.InputSource
	// Stdout/Stderr receive process output. Nil discards.
	Stdout stream.OutputSink
	Stderr stream.OutputSink
	// Retry executes the command under the given policy. Nil runs a single
	// attempt.
	Retry *model.RetryPolicy
}

// Run executes a command, records the outcome in the history repository and
// returns the stored record. History write failures are logged but never
// fail the run.
func (s *Service) Run(ctx context.Context, req Request) (*model.Execution, error) {
	if req.Binary == "" {
		return nil, fmt.Errorf("binary cannot be empty: %w", model.ErrNotValid)
	}

	command := s.buildCommand(req)

	attempts := 1
	startedAt := time.Now()

	var result *model.ExecutionResult
	var err error
	if req.Retry != nil {
		policy := *req.Retry
		// Count attempts without hiding the caller's own callback.
		userCallback := policy.OnRetry
		policy.OnRetry = func(a model.RetryAttempt) {
			attempts = a.Attempt + 1
			if userCallback != nil {
				userCallback(a)
			}
		}
		result, err = s.retrier.Run(ctx, command, policy)
	} else {
		result, err = s.runner.Run(ctx, command)
	}
	finishedAt := time.Now()

	execution := model.Execution{
		ID:         ulid.Make().String(),
		Binary:     req.Binary,
		Args:       append([]string(nil), req.Args...),
		WorkDir:    req.WorkDir,
		Attempts:   attempts,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}

	switch {
	case err != nil:
		execution.Status = model.ExecutionStatusFailed
		execution.Error = err.Error()
		var exitErr *model.ExitError
		if errors.As(err, &exitErr) {
			execution.ExitCode = exitErr.Code
		}
	default:
		execution.ExitCode = result.ExitCode
		execution.StartedAt = result.StartedAt
		execution.FinishedAt = result.FinishedAt
		if result.Success() {
			execution.Status = model.ExecutionStatusSucceeded
		} else {
			execution.Status = model.ExecutionStatusFailed
		}
	}

	if repoErr := s.repo.CreateExecution(ctx, execution); repoErr != nil {
		s.logger.Warningf("Could not store execution %s in history: %v", execution.ID, repoErr)
	}

	if err != nil {
		return &execution, fmt.Errorf("could not execute command: %w", err)
	}

	// A completed run with validation disabled still reports its exit code
	// through the record; with validation enabled a non-zero exit already
	// surfaced as an error above.
	s.logger.Debugf("Executed %s: exit code %d after %d attempt(s)", req.Binary, execution.ExitCode, attempts)

	return &execution, nil
}

func (s *Service) buildCommand(req Request) model.Command {
	command := model.NewCommand(req.Binary, req.Args...).
		WithExitCodeValidation(req.ValidateExitCode).
		WithLogger(s.logger)

	if req.WorkDir != "" {
		command = command.WithWorkDir(req.WorkDir)
	}
	for _, e := range req.Env {
		if e.Unset {
			command = command.WithEnvRemoved(e.Name)
		} else {
			command = command.WithEnv(e.Name, e.Value)
		}
	}
	if req.Timeout > 0 {
		command = command.WithTimeout(req.Timeout)
	}
	if req.Stdin != nil {
		command = command.WithStdin(req.Stdin)
	}
	if req.Stdout != nil {
		command = command.WithStdout(req.Stdout)
	}
	if req.Stderr != nil {
		command = command.WithStderr(req.Stderr)
	}

	return command
}
