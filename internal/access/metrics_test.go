package access

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/geo"
)

func rec(region string, km float64, same bool) Record {
	return Record{PersonRegion: region, DistanceKM: km, SameRegion: same}
}

func TestComputeMetrics_Empty(t *testing.T) {
	_, err := ComputeMetrics(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyInput))

	_, err = ComputeMetrics([]Record{})
	assert.True(t, eris.Is(err, ErrEmptyInput))
}

func TestComputeMetrics_Basic(t *testing.T) {
	records := []Record{
		rec("A", 1.0, true),
		rec("A", 3.0, false),
		rec("B", 6.0, true),
		rec("B", 12.0, false),
	}
	m, err := ComputeMetrics(records)
	require.NoError(t, err)

	assert.Equal(t, 4, m.Count)
	assert.InDelta(t, 5.5, m.MeanKM, 1e-12)
	assert.InDelta(t, 4.5, m.MedianKM, 1e-12)
	assert.InDelta(t, 1.0, m.MinKM, 1e-12)
	assert.InDelta(t, 12.0, m.MaxKM, 1e-12)
	assert.InDelta(t, 50.0, m.PctSameRegion, 1e-12)

	require.Len(t, m.Histogram, 4)
	for i, label := range geo.Bands {
		assert.Equal(t, label, m.Histogram[i].Label)
		assert.Equal(t, 1, m.Histogram[i].Count)
	}
}

func TestComputeMetrics_OddMedian(t *testing.T) {
	m, err := ComputeMetrics([]Record{rec("A", 9, false), rec("A", 1, false), rec("A", 4, false)})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, m.MedianKM, 1e-12)
}

func TestComputeMetrics_BinBoundaries(t *testing.T) {
	records := []Record{
		rec("A", 0, false),
		rec("A", 2.0, false),
		rec("A", 5.0, false),
		rec("A", 10.0, false),
		rec("A", 10.000001, false),
	}
	m, err := ComputeMetrics(records)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Bin(geo.Band0To2))
	assert.Equal(t, 1, m.Bin(geo.Band2To5))
	assert.Equal(t, 1, m.Bin(geo.Band5To10))
	assert.Equal(t, 1, m.Bin(geo.BandOver10))
	assert.Equal(t, 0, m.Bin("unknown"))
}

func TestComputeMetrics_HistogramPartition(t *testing.T) {
	var records []Record
	for i := range 1000 {
		records = append(records, rec("A", float64(i)*0.0173, i%3 == 0))
	}
	m, err := ComputeMetrics(records)
	require.NoError(t, err)

	total := 0
	for _, b := range m.Histogram {
		total += b.Count
	}
	assert.Equal(t, len(records), total)
}

func TestComputeMetrics_NotMutatingInput(t *testing.T) {
	records := []Record{rec("A", 9, false), rec("A", 1, false)}
	_, err := ComputeMetrics(records)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, records[0].DistanceKM, 1e-12)
}
