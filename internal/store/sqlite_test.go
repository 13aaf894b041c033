package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/access"
	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testInput() model.RunInput {
	return model.RunInput{
		PopulationPath: "poblacion.csv",
		FacilitiesPath: "centros.xlsx",
		SampleSize:     9000,
		Seed:           42,
		PopulationRead: 12000,
		Facilities:     35,
	}
}

func testResult() *model.RunResult {
	return &model.RunResult{
		Metrics: access.Metrics{
			Count:         3,
			MeanKM:        5.69,
			MedianKM:      1.57,
			PctSameRegion: 66.67,
			Histogram:     []access.BinCount{{Label: "0-2 km", Count: 2}, {Label: ">10 km", Count: 1}},
		},
		Regions: []access.RegionSummary{{Region: "SUBA", MeanKM: 13.9, Population: 1}},
		Demand:  []access.FacilityDemand{{FacilityID: "F1", FacilityName: "Hospital Suba", Assigned: 2}},
	}
}

var _ Store = (*SQLiteStore)(nil)

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_RunLifecycle_Complete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Equal(t, testInput(), got.Input)
	assert.Nil(t, got.Result)

	require.NoError(t, st.CompleteRun(ctx, run.ID, testResult()))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, *testResult(), *got.Result)
	assert.Empty(t, got.Error)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestSQLite_RunLifecycle_Failed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput())
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "access: empty facility set"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "access: empty facility set", got.Error)
}

func TestSQLite_RunNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = st.CompleteRun(ctx, "missing", testResult())
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = st.FailRun(ctx, "missing", "boom")
	assert.True(t, eris.Is(err, ErrRunNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, testInput())
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	require.NoError(t, st.CompleteRun(ctx, ids[0], testResult()))
	require.NoError(t, st.FailRun(ctx, ids[1], "bad input"))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, ids[0], complete[0].ID)
	require.NotNil(t, complete[0].Result)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad input", failed[0].Error)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	offset, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, offset, 1)

	future, err := st.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestSQLite_Facilities(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput())
	require.NoError(t, err)

	capacity := 120
	facilities := []access.Facility{
		{ID: "F1", Name: "Hospital Suba", Region: "SUBA", Location: geo.Point{Lat: 4.7417, Lon: -74.0836}, Capacity: &capacity},
		{ID: "F2", Name: "Centro_2", Region: "No_especificada", Location: geo.Point{Lat: 4.6097, Lon: -74.0817}},
	}
	require.NoError(t, st.SaveFacilities(ctx, run.ID, facilities))

	got, err := st.ListFacilities(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, facilities, got)

	none, err := st.ListFacilities(ctx, "other-run")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPointEWKBRoundTrip(t *testing.T) {
	p := geo.Point{Lat: 4.6097, Lon: -74.0817}
	data, err := encodePoint(p)
	require.NoError(t, err)

	back, err := decodePoint(data)
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = decodePoint([]byte{0x01, 0x02})
	assert.Error(t, err)
}
