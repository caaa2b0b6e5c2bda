package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)

// LaunchError is returned when the OS refuses to create the child process
// (bad path, missing executable, permissions). It is fatal and never retried.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("could not launch %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// TimeoutError is returned when the configured execution timeout fires. The
// process tree has already been terminated when it is returned. It is never
// retried.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution exceeded the configured timeout of %s", e.Timeout)
}

// ExitError is returned when the child ran to completion with a non-zero
// exit code and exit-code validation was requested. It is retryable subject
// to the retry policy's exit-code predicate.
type ExitError struct {
	Code   int
	Result ExecutionResult
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}
