package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository, running pending migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateExecution stores a new execution record.
func (r *Repository) CreateExecution(ctx context.Context, e model.Execution) error {
	args, err := json.Marshal(e.Args)
	if err != nil {
		return fmt.Errorf("could not marshal args: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, binary, args, work_dir, status, exit_code, attempts, error,
			started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		e.ID,
		e.Binary,
		string(args),
		e.WorkDir,
		e.Status,
		e.ExitCode,
		e.Attempts,
		e.Error,
		e.StartedAt.Unix(),
		e.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert execution: %w", err)
	}

	r.logger.Debugf("Stored execution %s", e.ID)
	return nil
}

// GetExecution retrieves an execution record by ID.
func (r *Repository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	query := `
		SELECT id, binary, args, work_dir, status, exit_code, attempts, error,
		       started_at, finished_at
		FROM executions
		WHERE id = ?
	`

	e, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get execution: %w", err)
	}

	return e, nil
}

// ListExecutions lists all execution records, most recent first.
func (r *Repository) ListExecutions(ctx context.Context) ([]model.Execution, error) {
	query := `
		SELECT id, binary, args, work_dir, status, exit_code, attempts, error,
		       started_at, finished_at
		FROM executions
		ORDER BY started_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list executions: %w", err)
	}
	defer rows.Close()

	var executions []model.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan execution: %w", err)
		}
		executions = append(executions, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate executions: %w", err)
	}

	return executions, nil
}

// DeleteExecution removes an execution record by ID.
func (r *Repository) DeleteExecution(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM executions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete execution: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted execution %s", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(s scanner) (*model.Execution, error) {
	var e model.Execution
	var args string
	var startedAt, finishedAt int64

	err := s.Scan(
		&e.ID,
		&e.Binary,
		&args,
		&e.WorkDir,
		&e.Status,
		&e.ExitCode,
		&e.Attempts,
		&e.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if args != "" {
		if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
			return nil, fmt.Errorf("could not unmarshal args: %w", err)
		}
	}
	e.StartedAt = time.Unix(startedAt, 0).UTC()
	e.FinishedAt = time.Unix(finishedAt, 0).UTC()

	return &e, nil
}
