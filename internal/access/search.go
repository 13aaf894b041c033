package access

import "github.com/sells-group/access-cli/internal/geo"

// Searcher finds the facility nearest to a point.
type Searcher interface {
	Nearest(p geo.Point) (Facility, float64, error)
}

// SearcherFactory builds a Searcher over a facility set.
type SearcherFactory func(facilities []Facility) (Searcher, error)

// BruteForce scans every facility in input order. Ties keep the first
// facility encountered.
type BruteForce struct {
	facilities []Facility
}

// NewBruteForce creates a brute-force searcher. The facility slice is read,
// never modified.
func NewBruteForce(facilities []Facility) (Searcher, error) {
	if len(facilities) == 0 {
		return nil, ErrEmptyFacilitySet
	}
	return &BruteForce{facilities: facilities}, nil
}

// Nearest returns the closest facility to p and its distance in kilometers.
func (b *BruteForce) Nearest(p geo.Point) (Facility, float64, error) {
	if len(b.facilities) == 0 {
		return Facility{}, 0, ErrEmptyFacilitySet
	}
	best := 0
	bestKM := geo.Distance(p, b.facilities[0].Location)
	for i := 1; i < len(b.facilities); i++ {
		d := geo.Distance(p, b.facilities[i].Location)
		if d < bestKM {
			best, bestKM = i, d
		}
	}
	return b.facilities[best], bestKM, nil
}
