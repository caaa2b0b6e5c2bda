package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/13cyberpunk02/SolimusWrapper/internal/app/run"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/storage/sqlite"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
	"github.com/13cyberpunk02/SolimusWrapper/internal/utils/env"
)

type ExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	command    []string
	workingDir string
	envSpecs   []string
	timeout    time.Duration
	input      string
	inputFile  string
	stdinPass  bool
	outputFile string
	noValidate bool

	attempts int
	delay    time.Duration
	backoff  float64
	maxDelay time.Duration
	jitter   bool
}

// NewExecCommand returns the exec command.
func NewExecCommand(rootCmd *RootCommand, app *kingpin.Application) *ExecCommand {
	c := &ExecCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("exec", "Execute a command (use -- before the command).")
	c.Cmd.Arg("command", "Command and arguments to execute.").Required().StringsVar(&c.command)
	c.Cmd.Flag("workdir", "Working directory for command execution.").Short('w').StringVar(&c.workingDir)
	c.Cmd.Flag("env", "Environment overlay (KEY=VALUE, KEY from current environment, KEY- to remove). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("timeout", "Kill the command (and its process tree) after this duration.").DurationVar(&c.timeout)
	c.Cmd.Flag("input", "Text to feed to the command's stdin.").StringVar(&c.input)
	c.Cmd.Flag("input-file", "File to feed to the command's stdin.").ExistingFileVar(&c.inputFile)
	c.Cmd.Flag("stdin", "Feed solimus's own stdin to the command (for pipelines).").BoolVar(&c.stdinPass)
	c.Cmd.Flag("output-file", "Write the command's stdout to a file instead of the terminal.").StringVar(&c.outputFile)
	c.Cmd.Flag("no-validate", "Do not fail on a non-zero exit code.").BoolVar(&c.noValidate)

	c.Cmd.Flag("attempts", "Total number of attempts (1 disables retries).").Default("1").IntVar(&c.attempts)
	c.Cmd.Flag("delay", "Initial delay between retries.").Default("1s").DurationVar(&c.delay)
	c.Cmd.Flag("backoff", "Retry delay multiplier.").Default("2.0").Float64Var(&c.backoff)
	c.Cmd.Flag("max-delay", "Cap for the retry delay.").Default("30s").DurationVar(&c.maxDelay)
	c.Cmd.Flag("jitter", "Randomize retry delays to desynchronize concurrent retriers.").BoolVar(&c.jitter)

	return c
}

func (c ExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	stdinSources := 0
	for _, set := range []bool{c.input != "", c.inputFile != "", c.stdinPass} {
		if set {
			stdinSources++
		}
	}
	if stdinSources > 1 {
		return fmt.Errorf("--input, --input-file and --stdin are mutually exclusive")
	}

	overlay, err := env.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	runner, retrier, err := newExecutors(logger)
	if err != nil {
		return err
	}

	svc, err := run.NewService(run.ServiceConfig{
		Runner:     runner,
		Retrier:    retrier,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := run.Request{
		Binary:           c.command[0],
		Args:             c.command[1:],
		WorkDir:          c.workingDir,
		Env:              overlay,
		Timeout:          c.timeout,
		ValidateExitCode: !c.noValidate,
		Stdout:           stream.NewWriterSink(c.rootCmd.Stdout),
		Stderr:           stream.NewWriterSink(c.rootCmd.Stderr),
	}

	if c.outputFile != "" {
		req.Stdout = stream.NewFileSink(c.outputFile)
	}
	switch {
	case c.input != "":
		req.Stdin = stream.NewStringSource(c.input)
	case c.inputFile != "":
		req.Stdin = stream.NewFileSource(c.inputFile)
	case c.stdinPass:
		req.Stdin = stream.NewReaderSource(c.rootCmd.Stdin)
	}

	if c.attempts > 1 {
		policy := model.RetryPolicy{
			MaxAttempts:  c.attempts,
			InitialDelay: c.delay,
			Multiplier:   c.backoff,
			MaxDelay:     c.maxDelay,
			Jitter:       c.jitter,
			OnRetry: func(a model.RetryAttempt) {
				logger.Warningf("Attempt %d/%d failed, retrying in %s", a.Attempt, a.MaxAttempts, a.NextDelay)
			},
		}
		req.Retry = &policy
	}

	execution, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not execute command: %w", err)
	}

	logger.Debugf("Execution %s finished with exit code %d", execution.ID, execution.ExitCode)
	return nil
}
