// Package feedstock holds the static catalog of supported biochar
// feedstocks and their physical parameters. Values come from the field
// methodology tables and are fixed at compile time.
package feedstock

import "sort"

// Feedstock describes one feedstock type.
type Feedstock struct {
	// Name is the canonical catalog name, e.g. "Rice husk".
	Name string `json:"name"`
	// BulkDensityKgM3 is the loose bulk density of the piled feedstock.
	BulkDensityKgM3 float64 `json:"bulk_density_kg_m3"`
	// YieldFactor is the biochar mass fraction obtained from the biomass.
	YieldFactor float64 `json:"yield_factor"`
	// DefaultPileHeightM is assumed when a request does not provide a pile height.
	DefaultPileHeightM float64 `json:"default_pile_height_m"`
}

var catalog = map[string]Feedstock{
	"Rice husk":         {Name: "Rice husk", BulkDensityKgM3: 96, YieldFactor: 0.25, DefaultPileHeightM: 0.2},
	"Wood chips":        {Name: "Wood chips", BulkDensityKgM3: 208, YieldFactor: 0.30, DefaultPileHeightM: 0.3},
	"Corn cobs":         {Name: "Corn cobs", BulkDensityKgM3: 190, YieldFactor: 0.28, DefaultPileHeightM: 0.25},
	"Coconut shells":    {Name: "Coconut shells", BulkDensityKgM3: 220, YieldFactor: 0.35, DefaultPileHeightM: 0.3},
	"Bamboo":            {Name: "Bamboo", BulkDensityKgM3: 180, YieldFactor: 0.33, DefaultPileHeightM: 0.25},
	"Sugarcane bagasse": {Name: "Sugarcane bagasse", BulkDensityKgM3: 140, YieldFactor: 0.22, DefaultPileHeightM: 0.2},
	"Groundnut shells":  {Name: "Groundnut shells", BulkDensityKgM3: 130, YieldFactor: 0.26, DefaultPileHeightM: 0.2},
	"Sludge":            {Name: "Sludge", BulkDensityKgM3: 110, YieldFactor: 0.50, DefaultPileHeightM: 0.15},
}

// Lookup returns the catalog entry for name. The boolean is false for
// names not in the catalog; matching is exact (the catalog endpoint
// publishes the canonical spellings).
func Lookup(name string) (Feedstock, bool) {
	f, ok := catalog[name]
	return f, ok
}

// All returns every catalog entry sorted by name.
func All() []Feedstock {
	out := make([]Feedstock, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
