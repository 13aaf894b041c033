package access

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRegionSummary_Empty(t *testing.T) {
	_, err := ComputeRegionSummary(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyInput))
}

func TestComputeRegionSummary_Aggregates(t *testing.T) {
	records := []Record{
		rec("KENNEDY", 1, true),
		rec("KENNEDY", 2, true),
		rec("KENNEDY", 6, false),
		rec("USME", 8, false),
		rec("USME", 10, true),
	}
	summaries, err := ComputeRegionSummary(records)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	usme := summaries[0]
	assert.Equal(t, "USME", usme.Region)
	assert.InDelta(t, 9.0, usme.MeanKM, 1e-12)
	assert.InDelta(t, 9.0, usme.MedianKM, 1e-12)
	assert.Equal(t, 2, usme.Population)
	assert.Equal(t, 1, usme.SameRegionCount)
	assert.InDelta(t, 50.0, usme.PctSameRegion, 1e-12)

	kennedy := summaries[1]
	assert.Equal(t, "KENNEDY", kennedy.Region)
	assert.InDelta(t, 3.0, kennedy.MeanKM, 1e-12)
	assert.InDelta(t, 2.0, kennedy.MedianKM, 1e-12)
	assert.Equal(t, 3, kennedy.Population)
	assert.Equal(t, 2, kennedy.SameRegionCount)
	assert.InDelta(t, 66.666, kennedy.PctSameRegion, 0.001)
}

func TestComputeRegionSummary_Ordering(t *testing.T) {
	records := []Record{
		rec("C", 4, false),
		rec("B", 4, false),
		rec("A", 4, false),
		rec("D", 7, false),
		rec("E", 1, false),
	}
	summaries, err := ComputeRegionSummary(records)
	require.NoError(t, err)

	var names []string
	for _, s := range summaries {
		names = append(names, s.Region)
	}
	assert.Equal(t, []string{"D", "A", "B", "C", "E"}, names)

	for i := 1; i < len(summaries); i++ {
		prev, cur := summaries[i-1], summaries[i]
		assert.GreaterOrEqual(t, prev.MeanKM, cur.MeanKM)
		if prev.MeanKM == cur.MeanKM {
			assert.Less(t, prev.Region, cur.Region)
		}
	}
}

func TestComputeRegionSummary_PopulationSumsToRecords(t *testing.T) {
	people := syntheticPopulation(300)
	records, err := ComputeAccessibility(t.Context(), people, syntheticFacilities(), 120, 42)
	require.NoError(t, err)

	summaries, err := ComputeRegionSummary(records)
	require.NoError(t, err)
	total := 0
	for _, s := range summaries {
		total += s.Population
	}
	assert.Equal(t, len(records), total)
}

func TestUnderservedRegions(t *testing.T) {
	summaries := []RegionSummary{
		{Region: "D", MeanKM: 9},
		{Region: "C", MeanKM: 7},
		{Region: "B", MeanKM: 5},
		{Region: "A", MeanKM: 2},
	}
	overall := Metrics{MeanKM: 5}

	all := UnderservedRegions(summaries, overall, 0)
	require.Len(t, all, 2)
	assert.Equal(t, "D", all[0].Region)
	assert.Equal(t, "C", all[1].Region)

	top := UnderservedRegions(summaries, overall, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "D", top[0].Region)

	assert.Empty(t, UnderservedRegions(summaries, Metrics{MeanKM: 100}, 5))
}
