package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"biocharapi/internal/config"
	"biocharapi/internal/feedstock"
	"biocharapi/internal/geodesy"
	"biocharapi/internal/imagery"
	"biocharapi/internal/model"
	"biocharapi/internal/repository"
	"biocharapi/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrNotFound         = errors.New("estimate not found")
	ErrReaderNil        = errors.New("reader is nil")
	ErrUnknownFeedstock = errors.New("unknown feedstock type")
	ErrInvalidArea      = errors.New("area must be positive")
)

// DirectInput is a plot whose area is already known in hectares.
type DirectInput struct {
	Feedstock   string
	Hectares    float64
	PileHeightM float64 // <= 0 means use the feedstock default
}

// PolygonInput is a plot traced as newline-separated "lat,lon" vertices.
type PolygonInput struct {
	Feedstock   string
	Coordinates string
	PileHeightM float64
}

// ImageInput describes uploaded aerial imagery; the payload itself is
// passed separately as a reader.
type ImageInput struct {
	Feedstock   string
	PileHeightM float64
	Filename    string
	ContentType string
	Size        int64
}

// EstimateListResult is the service-level DTO for paginated estimates.
type EstimateListResult struct {
	Items []model.Estimate `json:"data"`
	Total int              `json:"total"`
}

// EstimateService defines the use cases of the estimator.
type EstimateService interface {
	// EstimateDirect computes and stores an estimate for a directly entered area.
	EstimateDirect(ctx context.Context, in DirectInput) (*model.Estimate, error)

	// EstimatePolygon computes and stores an estimate for a traced plot outline.
	// Parse and range failures surface as geodesy sentinel errors.
	EstimatePolygon(ctx context.Context, in PolygonInput) (*model.Estimate, error)

	// EstimateImage derives the plot area from the imagery's pixel dimensions,
	// stores the imagery in object storage, and saves the estimate. If the DB
	// save fails the stored object is rolled back.
	EstimateImage(ctx context.Context, r io.Reader, in ImageInput) (*model.Estimate, error)

	// List returns estimates using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*EstimateListResult, error)

	// Get returns a single estimate by its ID.
	Get(ctx context.Context, id string) (*model.Estimate, error)

	// Delete removes an estimate by ID; for image estimates the stored
	// imagery is removed first.
	Delete(ctx context.Context, id string) error
}

// estimateService is a concrete implementation of EstimateService.
type estimateService struct {
	store storage.Storage
	repo  repository.EstimateRepository
	cfg   config.EstimatorConfig
}

// NewEstimateService constructs a new EstimateService.
func NewEstimateService(store storage.Storage, repo repository.EstimateRepository, cfg config.EstimatorConfig) EstimateService {
	return &estimateService{store: store, repo: repo, cfg: cfg}
}

func (s *estimateService) EstimateDirect(ctx context.Context, in DirectInput) (*model.Estimate, error) {
	fs, ok := feedstock.Lookup(in.Feedstock)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedstock, in.Feedstock)
	}
	if in.Hectares <= 0 {
		return nil, ErrInvalidArea
	}

	est := s.breakdown(model.MethodDirect, fs, in.Hectares*10000, in.PileHeightM)
	return s.repo.Create(ctx, est)
}

func (s *estimateService) EstimatePolygon(ctx context.Context, in PolygonInput) (*model.Estimate, error) {
	fs, ok := feedstock.Lookup(in.Feedstock)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedstock, in.Feedstock)
	}

	ring, err := geodesy.ParseOutline(in.Coordinates)
	if err != nil {
		return nil, err
	}

	est := s.breakdown(model.MethodPolygon, fs, geodesy.AreaM2(ring), in.PileHeightM)
	return s.repo.Create(ctx, est)
}

func (s *estimateService) EstimateImage(ctx context.Context, r io.Reader, in ImageInput) (*model.Estimate, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	fs, ok := feedstock.Lookup(in.Feedstock)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedstock, in.Feedstock)
	}

	width, height, replay, err := imagery.Probe(r)
	if err != nil {
		return nil, err
	}

	// The estimate ID doubles as the object name so imagery can always be
	// traced back to its estimate.
	id := uuid.New().String()
	key := filepath.ToSlash(filepath.Join("imagery", id+filepath.Ext(in.Filename)))

	size := in.Size
	if size <= 0 {
		size = -1
	}
	objInfo, err := s.store.Put(ctx, key, replay, storage.PutObjectOptions{
		Size:        size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	est := s.breakdown(model.MethodImage, fs, imagery.GroundAreaM2(width, height, s.cfg.ImageResolutionM), in.PileHeightM)
	est.ID = id
	est.ImagePath = objInfo.Key

	stored, err := s.repo.Create(ctx, est)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// breakdown derives every reported quantity from the plot area. Intermediates
// stay unrounded; rounding happens once, here, so stored rows match responses.
func (s *estimateService) breakdown(method model.Method, fs feedstock.Feedstock, areaM2, pileHeightM float64) *model.Estimate {
	height := pileHeightM
	if height <= 0 {
		height = fs.DefaultPileHeightM
	}

	areaHa := areaM2 / 10000
	pileArea := areaM2 * s.cfg.CoverageFraction
	volume := pileArea * height
	biomass := volume * fs.BulkDensityKgM3
	biochar := biomass * fs.YieldFactor

	var rate float64
	if areaHa > 0 {
		rate = biochar / areaHa
	}

	return &model.Estimate{
		ID:            uuid.New().String(),
		Method:        method,
		Feedstock:     fs.Name,
		PileHeightM:   height,
		AreaM2:        round2(areaM2),
		AreaHectares:  round2(areaHa),
		PileAreaM2:    round2(pileArea),
		PileAreaHa:    round4(pileArea / 10000),
		VolumeM3:      round2(volume),
		BiomassMassKg: round2(biomass),
		BiocharKg:     round2(biochar),
		RateKgPerHa:   round2(rate),
		CreatedAt:     time.Now().UTC(),
	}
}

// List returns paginated estimates without exposing repository types.
func (s *estimateService) List(ctx context.Context, limit, offset int) (*EstimateListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &EstimateListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns an estimate by ID.
func (s *estimateService) Get(ctx context.Context, id string) (*model.Estimate, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	est, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return est, nil
}

// Delete removes an estimate, cleaning up stored imagery first.
func (s *estimateService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	est, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete imagery first; if this fails, keep the DB row so the object
	// reference is not lost.
	if est.ImagePath != "" {
		if err := s.store.Delete(ctx, est.ImagePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	// Delete DB row (repository ignores missing row errors as per contract)
	return s.repo.Delete(ctx, id)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
