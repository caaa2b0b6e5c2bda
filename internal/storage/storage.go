package storage

import (
	"context"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

// Repository is the interface for execution-history persistence.
type Repository interface {
	CreateExecution(ctx context.Context, e model.Execution) error
	GetExecution(ctx context.Context, id string) (*model.Execution, error)
	ListExecutions(ctx context.Context) ([]model.Execution, error)
	DeleteExecution(ctx context.Context, id string) error
}
