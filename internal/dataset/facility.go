package dataset

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/access"
	"github.com/sells-group/access-cli/internal/geo"
)

// UnknownRegion labels facilities whose source row has no region.
const UnknownRegion = "No_especificada"

// FacilityOptions controls facility loading.
type FacilityOptions struct {
	Fields FieldMap
	// Centroids locates facilities when the table has no coordinate columns.
	Centroids *geo.CentroidTable
	// JitterSeed seeds the centroid jitter.
	JitterSeed uint64
	// Strict keeps out-of-range coordinates for the engine to reject.
	Strict bool
}

// FacilityStats extends LoadStats with the number of facilities placed at
// an approximate location.
type FacilityStats struct {
	LoadStats
	Approximated int `json:"approximated"`
}

// LoadFacilities reads a facility file.
func LoadFacilities(ctx context.Context, path string, opts FacilityOptions) ([]access.Facility, FacilityStats, error) {
	t, err := ReadTable(ctx, path)
	if err != nil {
		return nil, FacilityStats{}, err
	}
	facilities, stats, err := FacilitiesFromTable(t, opts)
	if err != nil {
		return nil, stats, eris.Wrapf(err, "dataset: load facilities %s", path)
	}
	zap.L().Info("dataset: loaded facilities",
		zap.String("path", path),
		zap.Int("read", stats.Read),
		zap.Int("dropped", stats.Dropped),
		zap.Int("kept", stats.Kept()),
		zap.Int("approximated", stats.Approximated),
	)
	return facilities, stats, nil
}

// FacilitiesFromTable converts a parsed table into facilities. When the
// table carries coordinate columns, rows lacking coordinates are dropped.
// Otherwise each facility is placed near its region centroid.
func FacilitiesFromTable(t *Table, opts FacilityOptions) ([]access.Facility, FacilityStats, error) {
	fields := opts.Fields
	if fields == nil {
		fields = DefaultFieldMap()
	}
	centroids := opts.Centroids
	if centroids == nil {
		centroids = geo.DefaultCentroids()
	}

	cols := fields.Resolve(t.Header)
	hasCoords := cols.Has(FieldLatitude, FieldLongitude)
	if !hasCoords {
		zap.L().Warn("dataset: facility table has no coordinates, using region centroids",
			zap.Strings("header", t.Header),
		)
	}

	rng := rand.New(rand.NewPCG(opts.JitterSeed, opts.JitterSeed^0x5851f42d4c957f2d))
	stats := FacilityStats{LoadStats: LoadStats{Read: len(t.Rows)}}
	facilities := make([]access.Facility, 0, len(t.Rows))
	for i, row := range t.Rows {
		region := cols.Get(row, FieldRegion)
		if region == "" {
			region = UnknownRegion
		}

		var loc geo.Point
		if hasCoords {
			p, ok := parsePoint(cols.Get(row, FieldLatitude), cols.Get(row, FieldLongitude), !opts.Strict)
			if !ok {
				stats.Dropped++
				continue
			}
			loc = p
		} else {
			loc = centroids.Locate(cols.Get(row, FieldRegion), rng)
			stats.Approximated++
		}

		id := cols.Get(row, FieldID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		name := cols.Get(row, FieldName)
		if name == "" {
			name = "Centro_" + strconv.Itoa(i+1)
		}
		facilities = append(facilities, access.Facility{
			ID:       id,
			Name:     name,
			Region:   region,
			Location: loc,
			Capacity: parseOptionalInt(cols.Get(row, FieldCapacity)),
		})
	}
	return facilities, stats, nil
}
