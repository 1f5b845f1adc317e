package mocks

import (
	"context"

	"biocharapi/internal/model"
	"biocharapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockEstimateRepository struct {
	mock.Mock
}

func (m *MockEstimateRepository) Create(ctx context.Context, est *model.Estimate) (*model.Estimate, error) {
	args := m.Called(ctx, est)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) FindByID(ctx context.Context, id string) (*model.Estimate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Estimate], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Estimate]), args.Error(1)
}

func (m *MockEstimateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
