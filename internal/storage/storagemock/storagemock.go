// Package storagemock contains testify mocks for the storage interfaces.
package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

// MockRepository is a mock implementation of storage.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateExecution(ctx context.Context, e model.Execution) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Execution), args.Error(1)
}

func (m *MockRepository) ListExecutions(ctx context.Context) ([]model.Execution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Execution), args.Error(1)
}

func (m *MockRepository) DeleteExecution(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
