package model

import "time"

// Method identifies how the plot area of an estimate was obtained.
type Method string

const (
	// MethodDirect means the area was entered directly in hectares.
	MethodDirect Method = "direct"
	// MethodPolygon means the area was computed from a traced geodesic polygon.
	MethodPolygon Method = "polygon"
	// MethodImage means the area was derived from the pixel dimensions of
	// uploaded georeferenced imagery.
	MethodImage Method = "image"
)

// Estimate is a stored biochar production estimate.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Estimate struct {
	ID            string  `json:"id"`
	Method        Method  `json:"method"`
	Feedstock     string  `json:"feedstock"`
	PileHeightM   float64 `json:"pile_height_m"`
	AreaM2        float64 `json:"area_m2"`
	AreaHectares  float64 `json:"area_hectares"`
	PileAreaM2    float64 `json:"pile_area_m2"`
	PileAreaHa    float64 `json:"pile_area_hectares"`
	VolumeM3      float64 `json:"volume_m3"`
	BiomassMassKg float64 `json:"biomass_mass_kg"`
	BiocharKg     float64 `json:"biochar_yield_kg"`
	// RateKgPerHa is the biochar application rate over the whole plot.
	RateKgPerHa float64 `json:"application_rate_kg_per_ha"`
	// ImagePath is the object-storage key of the uploaded imagery.
	// Empty for non-image estimates.
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
