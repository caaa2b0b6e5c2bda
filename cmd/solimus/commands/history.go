package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/13cyberpunk02/SolimusWrapper/internal/printer"
	"github.com/13cyberpunk02/SolimusWrapper/internal/storage/sqlite"
)

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List recorded executions, most recent first.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(string(printer.FormatTable)).EnumVar(&c.output, string(printer.FormatTable), string(printer.FormatJSON))

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	executions, err := repo.ListExecutions(ctx)
	if err != nil {
		return fmt.Errorf("could not list executions: %w", err)
	}

	p, err := printer.New(c.rootCmd.Stdout, printer.Format(c.output))
	if err != nil {
		return fmt.Errorf("could not create printer: %w", err)
	}

	return p.PrintExecutions(executions)
}

type HistoryRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id string
}

// NewHistoryRmCommand returns the history rm command.
func NewHistoryRmCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryRmCommand {
	c := &HistoryRmCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("rm", "Remove a recorded execution.")
	c.Cmd.Arg("id", "Execution ID.").Required().StringVar(&c.id)

	return c
}

func (c HistoryRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryRmCommand) Run(ctx context.Context) error {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	if err := repo.DeleteExecution(ctx, c.id); err != nil {
		return fmt.Errorf("could not delete execution: %w", err)
	}

	c.rootCmd.Logger.Infof("Deleted execution %s", c.id)
	return nil
}
