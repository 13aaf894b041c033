package access

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/access-cli/internal/geo"
)

// Vulnerability levels, in ascending severity.
const (
	VulnerabilityLow      = "Low"
	VulnerabilityMedium   = "Medium"
	VulnerabilityHigh     = "High"
	VulnerabilityVeryHigh = "Very High"
)

// VulnerabilityLevels lists every level in ascending severity.
var VulnerabilityLevels = []string{VulnerabilityLow, VulnerabilityMedium, VulnerabilityHigh, VulnerabilityVeryHigh}

// HotspotThreshold is the index at or above which a person counts as a
// vulnerability hotspot.
const HotspotThreshold = 4.0

// Component weights of the vulnerability index.
const (
	weightStratum   = 0.35
	weightEducation = 0.25
	weightCoverage  = 0.25
	weightAge       = 0.15
)

var educationScores = map[string]float64{
	"PRIMARIA":      4,
	"SECUNDARIA":    3,
	"TECNICA":       2,
	"UNIVERSITARIA": 1,
}

var coverageScores = map[string]float64{
	"NO_AFILIADO":  5,
	"SUBSIDIADO":   3,
	"CONTRIBUTIVO": 1,
}

// RegionVulnerability is the vulnerability aggregate of one region.
type RegionVulnerability struct {
	Region     string  `json:"region"`
	MeanIndex  float64 `json:"mean_index"`
	Level      string  `json:"level,omitempty"` // most frequent level among scored people
	Population int     `json:"population"`
	Scored     int     `json:"scored"`
	Hotspots   int     `json:"hotspots"`
}

// VulnerabilitySummary aggregates the vulnerability index of a record set.
type VulnerabilitySummary struct {
	Scored      int                   `json:"scored"`
	Hotspots    int                   `json:"hotspots"`
	PctHotspots float64               `json:"pct_hotspots"`
	Levels      []BinCount            `json:"levels"`
	Regions     []RegionVulnerability `json:"regions"`
}

// VulnerabilityIndex scores a record from 0 to 4.45. Stratum, education,
// health coverage and age must all be known; otherwise ok is false.
func VulnerabilityIndex(r Record) (index float64, ok bool) {
	if r.Stratum == nil || *r.Stratum < 1 || *r.Stratum > 6 || r.Age == nil {
		return 0, false
	}
	edu, ok := educationScores[categoryKey(r.EducationLevel)]
	if !ok {
		return 0, false
	}
	cov, ok := coverageScores[categoryKey(r.HealthCoverage)]
	if !ok {
		return 0, false
	}
	age := 1.0
	if *r.Age < 18 || *r.Age > 65 {
		age = 3
	}
	stratum := float64(6 - *r.Stratum)
	return stratum*weightStratum + edu*weightEducation + cov*weightCoverage + age*weightAge, true
}

// VulnerabilityLevel classifies an index into (0,2], (2,3], (3,4], (4,∞).
func VulnerabilityLevel(index float64) string {
	switch {
	case index <= 2:
		return VulnerabilityLow
	case index <= 3:
		return VulnerabilityMedium
	case index <= 4:
		return VulnerabilityHigh
	default:
		return VulnerabilityVeryHigh
	}
}

func categoryKey(s string) string {
	return strings.ReplaceAll(geo.NormalizeRegion(s), " ", "_")
}

// ComputeVulnerability scores every record and groups the result by person
// region. Records missing an index component count toward Population but
// not toward the means or levels. Regions are ordered by mean index
// descending, then name; regions with no scored people come last.
// The hotspot percentage is taken over all records.
func ComputeVulnerability(records []Record) (VulnerabilitySummary, error) {
	if len(records) == 0 {
		return VulnerabilitySummary{}, ErrEmptyInput
	}

	type group struct {
		sum      float64
		total    int
		scored   int
		hotspots int
		levels   [4]int
	}
	groups := make(map[string]*group)
	var levels [4]int
	var out VulnerabilitySummary
	for _, r := range records {
		g, ok := groups[r.PersonRegion]
		if !ok {
			g = &group{}
			groups[r.PersonRegion] = g
		}
		g.total++

		idx, ok := VulnerabilityIndex(r)
		if !ok {
			continue
		}
		li := slices.Index(VulnerabilityLevels, VulnerabilityLevel(idx))
		g.sum += idx
		g.scored++
		g.levels[li]++
		levels[li]++
		out.Scored++
		if idx >= HotspotThreshold {
			g.hotspots++
			out.Hotspots++
		}
	}

	out.PctHotspots = percent(out.Hotspots, len(records))
	out.Levels = make([]BinCount, len(VulnerabilityLevels))
	for i, label := range VulnerabilityLevels {
		out.Levels[i] = BinCount{Label: label, Count: levels[i]}
	}

	out.Regions = make([]RegionVulnerability, 0, len(groups))
	for region, g := range groups {
		rv := RegionVulnerability{
			Region:     region,
			Population: g.total,
			Scored:     g.scored,
			Hotspots:   g.hotspots,
		}
		if g.scored > 0 {
			rv.MeanIndex = g.sum / float64(g.scored)
			rv.Level = modalLevel(g.levels)
		}
		out.Regions = append(out.Regions, rv)
	}
	slices.SortFunc(out.Regions, func(a, b RegionVulnerability) int {
		if (a.Scored == 0) != (b.Scored == 0) {
			if a.Scored == 0 {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(b.MeanIndex, a.MeanIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out, nil
}

// modalLevel returns the most frequent level. Ties go to the more severe one.
func modalLevel(counts [4]int) string {
	best := -1
	for i := len(counts) - 1; i >= 0; i-- {
		if counts[i] > 0 && (best < 0 || counts[i] > counts[best]) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return VulnerabilityLevels[best]
}
