package access

import (
	"slices"

	"github.com/sells-group/access-cli/internal/geo"
)

// ComputeMetrics summarizes a record set. It fails with ErrEmptyInput when
// records is empty.
func ComputeMetrics(records []Record) (Metrics, error) {
	if len(records) == 0 {
		return Metrics{}, ErrEmptyInput
	}

	dists := make([]float64, len(records))
	counts := make([]int, len(geo.Bands))
	var sum float64
	var same int
	for i, r := range records {
		dists[i] = r.DistanceKM
		sum += r.DistanceKM
		counts[geo.BandIndex(r.DistanceKM)]++
		if r.SameRegion {
			same++
		}
	}
	slices.Sort(dists)

	hist := make([]BinCount, len(geo.Bands))
	for i, label := range geo.Bands {
		hist[i] = BinCount{Label: label, Count: counts[i]}
	}

	return Metrics{
		Count:         len(records),
		MeanKM:        sum / float64(len(records)),
		MedianKM:      medianSorted(dists),
		MinKM:         dists[0],
		MaxKM:         dists[len(dists)-1],
		PctSameRegion: percent(same, len(records)),
		Histogram:     hist,
	}, nil
}

// medianSorted returns the median of an ascending, non-empty slice.
func medianSorted(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
