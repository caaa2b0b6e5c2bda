package model

import (
	"fmt"
	"time"

	"golang.org/x/text/encoding"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

// EnvVar is one entry of a command's environment overlay. When Unset is true
// the variable is removed from the inherited environment instead of set.
type EnvVar struct {
	Name  string
	Value string
	Unset bool
}

// Command is the immutable specification of what to run. Deriving a command
// (any With* method) yields a new independent value and never mutates the
// original; slices and overlay entries are copied on derivation.
//
// The zero value is not usable, use NewCommand.
type Command struct {
	path         string
	args         []string
	workDir      Optional[string]
	env          []EnvVar
	stdout       Optional[stream.OutputSink]
	stderr       Optional[stream.OutputSink]
	stdin        Optional[stream.InputSource]
	encoding     Optional[encoding.Encoding]
	validateExit bool
	timeout      Optional[time.Duration]
	exitCallback func(exitCode int)
	logger       log.Logger
}

// NewCommand creates a command for the given executable path and arguments.
// Exit-code validation is enabled by default.
func NewCommand(path string, args ...string) Command {
	return Command{
		path:         path,
		args:         append([]string(nil), args...),
		validateExit: true,
	}
}

// clone returns a deep copy so that With* derivations stay independent.
func (c Command) clone() Command {
	c.args = append([]string(nil), c.args...)
	c.env = append([]EnvVar(nil), c.env...)
	return c
}

// Path returns the executable path.
func (c Command) Path() string { return c.path }

// Args returns a copy of the argument list. Each argument is passed to the
// OS as a discrete token, never shell-concatenated.
func (c Command) Args() []string { return append([]string(nil), c.args...) }

// WorkDir returns the working directory and whether one is set.
func (c Command) WorkDir() (string, bool) { return c.workDir.Value() }

// EnvOverlay returns a copy of the environment overlay entries, in the order
// they were added.
func (c Command) EnvOverlay() []EnvVar { return append([]EnvVar(nil), c.env...) }

// Stdout returns the configured stdout sink, defaulting to Discard.
func (c Command) Stdout() stream.OutputSink { return c.stdout.Or(stream.Discard()) }

// Stderr returns the configured stderr sink, defaulting to Discard.
func (c Command) Stderr() stream.OutputSink { return c.stderr.Or(stream.Discard()) }

// Stdin returns the configured input source and whether one is set.
func (c Command) Stdin() (stream.InputSource, bool) { return c.stdin.Value() }

// Encoding returns the configured text encoding, or nil for raw UTF-8
// passthrough.
func (c Command) Encoding() encoding.Encoding { return c.encoding.Or(nil) }

// ValidatesExitCode returns whether a non-zero exit code fails the run.
func (c Command) ValidatesExitCode() bool { return c.validateExit }

// Timeout returns the execution timeout and whether one is set.
func (c Command) Timeout() (time.Duration, bool) { return c.timeout.Value() }

// ExitCallback returns the exit-code callback, or nil.
func (c Command) ExitCallback() func(int) { return c.exitCallback }

// Logger returns the per-command logger, or nil.
func (c Command) Logger() log.Logger { return c.logger }

// WithArgs returns a copy with the argument list replaced.
func (c Command) WithArgs(args ...string) Command {
	c = c.clone()
	c.args = append([]string(nil), args...)
	return c
}

// WithArgsAppended returns a copy with extra arguments appended.
func (c Command) WithArgsAppended(args ...string) Command {
	c = c.clone()
	c.args = append(c.args, args...)
	return c
}

// WithWorkDir returns a copy that runs in the given directory.
func (c Command) WithWorkDir(dir string) Command {
	c = c.clone()
	c.workDir = Set(dir)
	return c
}

// WithWorkDirCleared returns a copy that explicitly runs in the caller's
// current directory, even when derived from a command with a working dir.
func (c Command) WithWorkDirCleared() Command {
	c = c.clone()
	c.workDir = Cleared[string]()
	return c
}

// WithEnv returns a copy with an environment variable upserted over the
// inherited environment.
func (c Command) WithEnv(name, value string) Command {
	c = c.clone()
	c.env = append(c.env, EnvVar{Name: name, Value: value})
	return c
}

// WithEnvRemoved returns a copy that removes a variable from the inherited
// environment. Removals are applied before upserts, so a later WithEnv for
// the same name wins.
func (c Command) WithEnvRemoved(name string) Command {
	c = c.clone()
	c.env = append(c.env, EnvVar{Name: name, Unset: true})
	return c
}

// WithStdout returns a copy with the stdout sink replaced.
func (c Command) WithStdout(sink stream.OutputSink) Command {
	c = c.clone()
	c.stdout = Set(sink)
	return c
}

// WithStderr returns a copy with the stderr sink replaced.
func (c Command) WithStderr(sink stream.OutputSink) Command {
	c = c.clone()
	c.stderr = Set(sink)
	return c
}

// WithMergedOutput returns a copy that sends both stdout and stderr to the
// same sink. The sink must serialize concurrent writes (BufferSink does).
func (c Command) WithMergedOutput(sink stream.OutputSink) Command {
	c = c.clone()
	c.stdout = Set(sink)
	c.stderr = Set(sink)
	return c
}

// WithStdin returns a copy fed by the given input source.
func (c Command) WithStdin(src stream.InputSource) Command {
	c = c.clone()
	c.stdin = Set(src)
	return c
}

// WithStdinCleared returns a copy whose stdin is explicitly closed
// immediately, even when derived from a command with an input source.
func (c Command) WithStdinCleared() Command {
	c = c.clone()
	c.stdin = Cleared[stream.InputSource]()
	return c
}

// WithEncoding returns a copy whose output is decoded from (and input
// encoded to) the given text encoding.
func (c Command) WithEncoding(enc encoding.Encoding) Command {
	c = c.clone()
	c.encoding = Set(enc)
	return c
}

// WithExitCodeValidation returns a copy with exit-code validation toggled.
func (c Command) WithExitCodeValidation(validate bool) Command {
	c = c.clone()
	c.validateExit = validate
	return c
}

// WithTimeout returns a copy bounded by the given execution timeout.
func (c Command) WithTimeout(d time.Duration) Command {
	c = c.clone()
	c.timeout = Set(d)
	return c
}

// WithTimeoutCleared returns a copy with no execution timeout, even when
// derived from a command with one.
func (c Command) WithTimeoutCleared() Command {
	c = c.clone()
	c.timeout = Cleared[time.Duration]()
	return c
}

// WithExitCallback returns a copy whose callback is invoked with the exit
// code of every attempt, regardless of validation.
func (c Command) WithExitCallback(fn func(exitCode int)) Command {
	c = c.clone()
	c.exitCallback = fn
	return c
}

// WithLogger returns a copy that logs launch, per-line output and exit
// events to the given logger.
func (c Command) WithLogger(logger log.Logger) Command {
	c = c.clone()
	c.logger = logger
	return c
}

// Validate validates the command specification.
func (c Command) Validate() error {
	if c.path == "" {
		return fmt.Errorf("executable path is required: %w", ErrNotValid)
	}

	if d, ok := c.timeout.Value(); ok && d <= 0 {
		return fmt.Errorf("timeout must be positive: %w", ErrNotValid)
	}

	for _, e := range c.env {
		if e.Name == "" {
			return fmt.Errorf("environment variable name cannot be empty: %w", ErrNotValid)
		}
	}

	return nil
}
