package model

import "time"

// ExecutionResult is the outcome of a single execution attempt. It is
// created once per attempt and never mutated after construction.
type ExecutionResult struct {
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Success returns true when the process exited with code zero.
func (r ExecutionResult) Success() bool { return r.ExitCode == 0 }

// Duration returns the elapsed wall-clock time of the attempt.
func (r ExecutionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ExecutionStatus represents the final status of a recorded execution.
type ExecutionStatus string

const (
	// ExecutionStatusSucceeded indicates the execution finished with exit code 0.
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	// ExecutionStatusFailed indicates the execution failed (non-zero exit or error).
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// Execution is the history record of one command execution (including all
// its retry attempts), as stored in the repository.
type Execution struct {
	ID         string
	Binary     string
	Args       []string
	WorkDir    string
	Status     ExecutionStatus
	ExitCode   int
	Attempts   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
