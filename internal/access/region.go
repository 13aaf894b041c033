package access

import (
	"cmp"
	"slices"
)

// ComputeRegionSummary groups records by person region. The result is
// ordered worst access first: mean distance descending, then region name
// ascending.
func ComputeRegionSummary(records []Record) ([]RegionSummary, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	type group struct {
		dists []float64
		sum   float64
		same  int
	}
	groups := make(map[string]*group)
	for _, r := range records {
		g, ok := groups[r.PersonRegion]
		if !ok {
			g = &group{}
			groups[r.PersonRegion] = g
		}
		g.dists = append(g.dists, r.DistanceKM)
		g.sum += r.DistanceKM
		if r.SameRegion {
			g.same++
		}
	}

	out := make([]RegionSummary, 0, len(groups))
	for region, g := range groups {
		slices.Sort(g.dists)
		n := len(g.dists)
		out = append(out, RegionSummary{
			Region:          region,
			MeanKM:          g.sum / float64(n),
			MedianKM:        medianSorted(g.dists),
			Population:      n,
			SameRegionCount: g.same,
			PctSameRegion:   percent(g.same, n),
		})
	}

	slices.SortFunc(out, func(a, b RegionSummary) int {
		if c := cmp.Compare(b.MeanKM, a.MeanKM); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out, nil
}

// UnderservedRegions returns up to n regions whose mean distance exceeds
// the overall mean, in summary order. n <= 0 returns all of them.
func UnderservedRegions(summaries []RegionSummary, overall Metrics, n int) []RegionSummary {
	var out []RegionSummary
	for _, s := range summaries {
		if s.MeanKM > overall.MeanKM {
			out = append(out, s)
			if n > 0 && len(out) == n {
				break
			}
		}
	}
	return out
}
