// Package access computes nearest-facility accessibility for a population
// sample and aggregates it into distance metrics and per-region summaries.
package access

import "github.com/sells-group/access-cli/internal/geo"

// Person is a population record.
type Person struct {
	ID             string    `json:"id"`
	Location       geo.Point `json:"location"`
	Region         string    `json:"region"`
	Age            *int      `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	EducationLevel string    `json:"education_level,omitempty"`
	HealthCoverage string    `json:"health_coverage,omitempty"`
	// Stratum is the socioeconomic stratum, 1 (lowest) to 6.
	Stratum *int `json:"stratum,omitempty"`
}

// Facility is a service center.
type Facility struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Region   string    `json:"region"`
	Location geo.Point `json:"location"`
	Capacity *int      `json:"capacity,omitempty"`
}

// Record is the nearest-facility result for one person.
type Record struct {
	PersonID       string    `json:"person_id"`
	PersonRegion   string    `json:"person_region"`
	PersonLocation geo.Point `json:"person_location"`
	FacilityID     string    `json:"facility_id"`
	FacilityName   string    `json:"facility_name"`
	FacilityRegion string    `json:"facility_region"`
	DistanceKM     float64   `json:"distance_km"`
	SameRegion     bool      `json:"same_region"`

	// Pass-through person attributes.
	Age            *int   `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
	EducationLevel string `json:"education_level,omitempty"`
	HealthCoverage string `json:"health_coverage,omitempty"`
	Stratum        *int   `json:"stratum,omitempty"`
}

// BinCount is one histogram bin.
type BinCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Metrics aggregates a record set.
type Metrics struct {
	Count         int        `json:"count"`
	MeanKM        float64    `json:"mean_km"`
	MedianKM      float64    `json:"median_km"`
	MinKM         float64    `json:"min_km"`
	MaxKM         float64    `json:"max_km"`
	PctSameRegion float64    `json:"pct_same_region"`
	Histogram     []BinCount `json:"histogram"`
}

// Bin returns the count for a histogram label, or 0 if absent.
func (m Metrics) Bin(label string) int {
	for _, b := range m.Histogram {
		if b.Label == label {
			return b.Count
		}
	}
	return 0
}

// RegionSummary aggregates records sharing a person region.
type RegionSummary struct {
	Region          string  `json:"region"`
	MeanKM          float64 `json:"mean_km"`
	MedianKM        float64 `json:"median_km"`
	Population      int     `json:"population"`
	SameRegionCount int     `json:"same_region_count"`
	PctSameRegion   float64 `json:"pct_same_region"`
}

// FacilityDemand counts the people whose nearest facility is a given one.
type FacilityDemand struct {
	FacilityID   string  `json:"facility_id"`
	FacilityName string  `json:"facility_name"`
	Region       string  `json:"region"`
	Assigned     int     `json:"assigned"`
	MeanKM       float64 `json:"mean_km"`
}
