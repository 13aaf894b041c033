package dataset

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/access"
	"github.com/sells-group/access-cli/internal/geo"
)

// LoadStats counts the rows seen and discarded by a loader.
type LoadStats struct {
	Read    int `json:"read"`
	Dropped int `json:"dropped"`
}

// Kept returns the number of rows that produced a record.
func (s LoadStats) Kept() int { return s.Read - s.Dropped }

// PopulationOptions controls population loading.
type PopulationOptions struct {
	Fields FieldMap
	// Strict keeps rows whose coordinates parse but are out of range, so the
	// engine rejects them instead of the loader dropping them.
	Strict bool
}

// LoadPopulation reads a population file. Rows with missing or unparseable
// coordinates are dropped and counted.
func LoadPopulation(ctx context.Context, path string, opts PopulationOptions) ([]access.Person, LoadStats, error) {
	t, err := ReadTable(ctx, path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	people, stats, err := PopulationFromTable(t, opts)
	if err != nil {
		return nil, stats, eris.Wrapf(err, "dataset: load population %s", path)
	}
	zap.L().Info("dataset: loaded population",
		zap.String("path", path),
		zap.Int("read", stats.Read),
		zap.Int("dropped", stats.Dropped),
		zap.Int("kept", stats.Kept()),
	)
	return people, stats, nil
}

// PopulationFromTable converts a parsed table into people.
func PopulationFromTable(t *Table, opts PopulationOptions) ([]access.Person, LoadStats, error) {
	fields := opts.Fields
	if fields == nil {
		fields = DefaultFieldMap()
	}
	cols := fields.Resolve(t.Header)
	if err := cols.Require(FieldLatitude, FieldLongitude, FieldRegion); err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{Read: len(t.Rows)}
	people := make([]access.Person, 0, len(t.Rows))
	for i, row := range t.Rows {
		loc, ok := parsePoint(cols.Get(row, FieldLatitude), cols.Get(row, FieldLongitude), !opts.Strict)
		if !ok {
			stats.Dropped++
			continue
		}

		id := cols.Get(row, FieldID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		people = append(people, access.Person{
			ID:             id,
			Location:       loc,
			Region:         cols.Get(row, FieldRegion),
			Age:            parseOptionalInt(cols.Get(row, FieldAge)),
			Gender:         cols.Get(row, FieldGender),
			EducationLevel: cols.Get(row, FieldEducationLevel),
			HealthCoverage: cols.Get(row, FieldHealthCoverage),
			Stratum:        parseOptionalInt(cols.Get(row, FieldStratum)),
		})
	}
	return people, stats, nil
}

// parsePoint parses a latitude/longitude pair. A decimal comma is accepted.
// With validate set, out-of-range points are rejected too.
func parsePoint(lat, lon string, validate bool) (geo.Point, bool) {
	la, ok := parseFloat(lat)
	if !ok {
		return geo.Point{}, false
	}
	lo, ok := parseFloat(lon)
	if !ok {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: la, Lon: lo}
	if validate && p.Validate() != nil {
		return geo.Point{}, false
	}
	return p, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseOptionalInt(s string) *int {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
