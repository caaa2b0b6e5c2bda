package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/13cyberpunk02/SolimusWrapper/internal/log"
	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	executions map[string]model.Execution
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		executions: make(map[string]model.Execution),
		logger:     cfg.Logger,
	}, nil
}

// CreateExecution stores a new execution record.
func (r *Repository) CreateExecution(ctx context.Context, e model.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executions[e.ID]; ok {
		return fmt.Errorf("execution %s already exists: %w", e.ID, model.ErrNotValid)
	}

	e.Args = append([]string(nil), e.Args...)
	r.executions[e.ID] = e
	r.logger.Debugf("Stored execution %s", e.ID)

	return nil
}

// GetExecution retrieves an execution record by ID.
func (r *Repository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
	}

	e.Args = append([]string(nil), e.Args...)
	return &e, nil
}

// ListExecutions lists all execution records, most recent first.
func (r *Repository) ListExecutions(ctx context.Context) ([]model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executions := make([]model.Execution, 0, len(r.executions))
	for _, e := range r.executions {
		e.Args = append([]string(nil), e.Args...)
		executions = append(executions, e)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

// DeleteExecution removes an execution record by ID.
func (r *Repository) DeleteExecution(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executions[id]; !ok {
		return fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
	}

	delete(r.executions, id)
	r.logger.Debugf("Deleted execution %s", id)

	return nil
}
