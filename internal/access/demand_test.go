package access

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFacilityDemand(t *testing.T) {
	records := []Record{
		{FacilityID: "f2", FacilityName: "Hospital Kennedy", FacilityRegion: "KENNEDY", DistanceKM: 1},
		{FacilityID: "f1", FacilityName: "CAMI Usme", FacilityRegion: "USME", DistanceKM: 4},
		{FacilityID: "f2", FacilityName: "Hospital Kennedy", FacilityRegion: "KENNEDY", DistanceKM: 3},
		{FacilityID: "f3", FacilityName: "Alpha", FacilityRegion: "SUBA", DistanceKM: 2},
	}

	demand, err := ComputeFacilityDemand(records)
	require.NoError(t, err)
	require.Len(t, demand, 3)

	assert.Equal(t, "f2", demand[0].FacilityID)
	assert.Equal(t, 2, demand[0].Assigned)
	assert.InDelta(t, 2.0, demand[0].MeanKM, 1e-12)
	assert.Equal(t, "KENNEDY", demand[0].Region)

	// Equal counts fall back to name order.
	assert.Equal(t, "Alpha", demand[1].FacilityName)
	assert.Equal(t, "CAMI Usme", demand[2].FacilityName)
}

func TestComputeFacilityDemand_Empty(t *testing.T) {
	_, err := ComputeFacilityDemand(nil)
	assert.True(t, eris.Is(err, ErrEmptyInput))
}
