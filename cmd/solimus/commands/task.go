package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/13cyberpunk02/SolimusWrapper/internal/app/run"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/shellescape"
	"github.com/13cyberpunk02/SolimusWrapper/internal/storage/sqlite"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
	"github.com/13cyberpunk02/SolimusWrapper/internal/taskfile"
)

type TaskCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file string
}

// NewTaskCommand returns the task command.
func NewTaskCommand(rootCmd *RootCommand, app *kingpin.Application) *TaskCommand {
	c := &TaskCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("task", "Execute the tasks declared in a YAML task file, in order.")
	c.Cmd.Arg("file", "Path to the task file.").Required().ExistingFileVar(&c.file)

	return c
}

func (c TaskCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	file, err := taskfile.Load(c.file)
	if err != nil {
		return fmt.Errorf("could not load task file: %w", err)
	}

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

	var failed []string
	for i, task := range file.Tasks {
		logger.Infof("[%d/%d] Running task %q: %s", i+1, len(file.Tasks), task.Name, shellescape.Join(task.Command))

		req := run.Request{
			Binary:           task.Command[0],
			Args:             task.Command[1:],
			WorkDir:          task.WorkDir,
			Env:              task.EnvOverlay(),
			Timeout:          task.Timeout.Std(),
			ValidateExitCode: true,
			Stdout:           stream.NewWriterSink(c.rootCmd.Stdout),
			Stderr:           stream.NewWriterSink(c.rootCmd.Stderr),
		}

		switch {
		case task.Stdin != "":
			req.Stdin = stream.NewStringSource(task.Stdin)
		case task.StdinFile != "":
			req.Stdin = stream.NewFileSource(task.StdinFile)
		}

		if task.Retry != nil {
			policy := task.Retry.Policy()
			policy.OnRetry = func(a model.RetryAttempt) {
				logger.Warningf("Task %q attempt %d/%d failed, retrying in %s", task.Name, a.Attempt, a.MaxAttempts, a.NextDelay)
			}
			req.Retry = &policy
		}

		_, err := svc.Run(ctx, req)
		if err != nil {
			if !task.ContinueOnError {
				return fmt.Errorf("task %q failed: %w", task.Name, err)
			}

			logger.Warningf("Task %q failed, continuing: %v", task.Name, err)
			failed = append(failed, task.Name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d task(s) failed: %v", len(failed), failed)
	}

	logger.Infof("All %d tasks finished successfully", len(file.Tasks))
	return nil
}
