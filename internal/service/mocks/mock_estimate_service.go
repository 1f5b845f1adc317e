package mocks

import (
	"context"
	"io"

	"biocharapi/internal/model"
	"biocharapi/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockEstimateService struct {
	mock.Mock
}

func (m *MockEstimateService) EstimateDirect(ctx context.Context, in service.DirectInput) (*model.Estimate, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateService) EstimatePolygon(ctx context.Context, in service.PolygonInput) (*model.Estimate, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateService) EstimateImage(ctx context.Context, r io.Reader, in service.ImageInput) (*model.Estimate, error) {
	args := m.Called(ctx, r, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateService) List(ctx context.Context, limit, offset int) (*service.EstimateListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EstimateListResult), args.Error(1)
}

func (m *MockEstimateService) Get(ctx context.Context, id string) (*model.Estimate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
