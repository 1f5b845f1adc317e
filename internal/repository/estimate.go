package repository

import (
	"context"

	"biocharapi/internal/model"
)

// EstimateRepository defines data access for stored estimates using SQL
// queries only. No business logic here — strictly persistence operations.
type EstimateRepository interface {
	// Create inserts a new estimate record and returns the stored row
	// (may include values set by the database).
	Create(ctx context.Context, est *model.Estimate) (*model.Estimate, error)

	// FindByID returns an estimate by its ID.
	FindByID(ctx context.Context, id string) (*model.Estimate, error)

	// List returns a page of estimates, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Estimate], error)

	// Delete removes an estimate by ID. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
