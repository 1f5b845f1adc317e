package postgres

import (
	"context"
	"database/sql"
	"errors"

	"biocharapi/internal/model"
	"biocharapi/internal/repository"
)

// EstimatePostgres is a PostgreSQL implementation of repository.EstimateRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type EstimatePostgres struct {
	db *sql.DB
}

// NewEstimatePostgres creates a new EstimatePostgres repository.
func NewEstimatePostgres(db *sql.DB) *EstimatePostgres {
	return &EstimatePostgres{db: db}
}

var _ repository.EstimateRepository = (*EstimatePostgres)(nil)

// IsNoRowsError reports whether err means the queried row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

const estimateColumns = `id, method, feedstock, pile_height_m, area_m2, area_hectares,
		pile_area_m2, pile_area_hectares, volume_m3, biomass_mass_kg,
		biochar_yield_kg, application_rate_kg_per_ha, image_path, created_at`

func scanEstimate(row interface{ Scan(...any) error }) (*model.Estimate, error) {
	var (
		e         model.Estimate
		imagePath sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&e.Method,
		&e.Feedstock,
		&e.PileHeightM,
		&e.AreaM2,
		&e.AreaHectares,
		&e.PileAreaM2,
		&e.PileAreaHa,
		&e.VolumeM3,
		&e.BiomassMassKg,
		&e.BiocharKg,
		&e.RateKgPerHa,
		&imagePath,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.ImagePath = imagePath.String
	return &e, nil
}

// Create inserts a new estimate row and returns the stored record.
func (r *EstimatePostgres) Create(ctx context.Context, est *model.Estimate) (*model.Estimate, error) {
	const q = `
		INSERT INTO estimates (id, method, feedstock, pile_height_m, area_m2, area_hectares,
			pile_area_m2, pile_area_hectares, volume_m3, biomass_mass_kg,
			biochar_yield_kg, application_rate_kg_per_ha, image_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + estimateColumns
	imagePath := sql.NullString{String: est.ImagePath, Valid: est.ImagePath != ""}
	row := r.db.QueryRowContext(ctx, q,
		est.ID,
		est.Method,
		est.Feedstock,
		est.PileHeightM,
		est.AreaM2,
		est.AreaHectares,
		est.PileAreaM2,
		est.PileAreaHa,
		est.VolumeM3,
		est.BiomassMassKg,
		est.BiocharKg,
		est.RateKgPerHa,
		imagePath,
		est.CreatedAt,
	)
	return scanEstimate(row)
}

// FindByID fetches a single estimate by its ID.
func (r *EstimatePostgres) FindByID(ctx context.Context, id string) (*model.Estimate, error) {
	const q = `
		SELECT ` + estimateColumns + `
		FROM estimates
		WHERE id = $1
	`
	return scanEstimate(r.db.QueryRowContext(ctx, q, id))
}

// List returns estimates using LIMIT/OFFSET pagination and a total count.
func (r *EstimatePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Estimate], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM estimates`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + estimateColumns + `
		FROM estimates
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Estimate, 0)
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Estimate]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes an estimate by ID. It does not return an error if the row does not exist.
func (r *EstimatePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM estimates WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
