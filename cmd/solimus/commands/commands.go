package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	exerunner "github.com/13cyberpunk02/SolimusWrapper/internal/exec"
	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/retry"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be
// executed should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global
// configuration for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".solimus", "history.db")
	app.Flag("db-path", "Path to the execution history SQLite database file.").Envar("SOLIMUS_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)

	return c
}

// newExecutors creates the single-attempt runner and the retrier used by the
// run-style commands.
func newExecutors(logger log.Logger) (*exerunner.Runner, *retry.Retrier, error) {
	runner, err := exerunner.NewRunner(exerunner.RunnerConfig{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create runner: %w", err)
	}

	retrier, err := retry.NewRetrier(retry.RetrierConfig{Runner: runner, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create retrier: %w", err)
	}

	return runner, retrier, nil
}
