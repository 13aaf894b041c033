// Package dataset loads population and facility tables from CSV, XLSX,
// and point shapefiles into access records.
package dataset

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Canonical field names.
const (
	FieldID             = "id"
	FieldLatitude       = "latitude"
	FieldLongitude      = "longitude"
	FieldRegion         = "region"
	FieldName           = "name"
	FieldAge            = "age"
	FieldGender         = "gender"
	FieldEducationLevel = "education_level"
	FieldHealthCoverage = "health_coverage"
	FieldCapacity       = "capacity"
	FieldStratum        = "stratum"
)

// ErrMissingColumns is returned when a table lacks a required field.
var ErrMissingColumns = eris.New("dataset: missing required columns")

// FieldMap maps a canonical field name to the source column names accepted
// for it, in priority order. Matching is case-insensitive.
type FieldMap map[string][]string

// DefaultFieldMap returns the aliases used by the Bogota source files.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		FieldID:             {"id", "persona_id", "codigo"},
		FieldLatitude:       {"latitud", "latitude", "lat"},
		FieldLongitude:      {"longitud", "longitude", "lon", "lng"},
		FieldRegion:         {"localidad", "region", "locality"},
		FieldName:           {"centro_salud", "nombre", "name"},
		FieldAge:            {"edad", "age"},
		FieldGender:         {"genero", "gender"},
		FieldEducationLevel: {"nivel_educativo", "education_level"},
		FieldHealthCoverage: {"afiliacion_salud", "health_coverage"},
		FieldCapacity:       {"capacidad", "capacity", "camas"},
		FieldStratum:        {"estrato", "stratum"},
	}
}

// Merge returns a copy of m with the aliases in override replacing those of
// the same canonical field.
func (m FieldMap) Merge(override map[string][]string) FieldMap {
	out := make(FieldMap, len(m)+len(override))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range override {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// Columns is a FieldMap resolved against one table header.
type Columns map[string]int

// Resolve finds the column index for each canonical field present in header.
func (m FieldMap) Resolve(header []string) Columns {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	cols := make(Columns)
	for field, aliases := range m {
		for _, alias := range aliases {
			if i, ok := pos[strings.ToLower(alias)]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

// Has reports whether every field is present.
func (c Columns) Has(fields ...string) bool {
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			return false
		}
	}
	return true
}

// Require returns ErrMissingColumns naming the absent fields.
func (c Columns) Require(fields ...string) error {
	var missing []string
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumns, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Get returns the trimmed value of a field in row, or "" when the field is
// unresolved or the row is short.
func (c Columns) Get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
