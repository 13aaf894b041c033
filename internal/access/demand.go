package access

import (
	"cmp"
	"slices"
)

// ComputeFacilityDemand counts how many records chose each facility as
// nearest. Ordered by assigned count descending, then facility name and ID
// ascending.
func ComputeFacilityDemand(records []Record) ([]FacilityDemand, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	byID := make(map[string]*FacilityDemand)
	sums := make(map[string]float64)
	for _, r := range records {
		d, ok := byID[r.FacilityID]
		if !ok {
			d = &FacilityDemand{
				FacilityID:   r.FacilityID,
				FacilityName: r.FacilityName,
				Region:       r.FacilityRegion,
			}
			byID[r.FacilityID] = d
		}
		d.Assigned++
		sums[r.FacilityID] += r.DistanceKM
	}

	out := make([]FacilityDemand, 0, len(byID))
	for id, d := range byID {
		d.MeanKM = sums[id] / float64(d.Assigned)
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b FacilityDemand) int {
		if c := cmp.Compare(b.Assigned, a.Assigned); c != 0 {
			return c
		}
		if c := cmp.Compare(a.FacilityName, b.FacilityName); c != 0 {
			return c
		}
		return cmp.Compare(a.FacilityID, b.FacilityID)
	})
	return out, nil
}
