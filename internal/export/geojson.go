package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/access-cli/internal/access"
)

// RecordsFeatureCollection builds a FeatureCollection with one person point
// per record.
func RecordsFeatureCollection(records []access.Record) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, r := range records {
		props := map[string]interface{}{
			"person_region":   r.PersonRegion,
			"facility_id":     r.FacilityID,
			"facility_name":   r.FacilityName,
			"facility_region": r.FacilityRegion,
			"distance_km":     r.DistanceKM,
			"same_region":     r.SameRegion,
		}
		if r.Age != nil {
			props["age"] = *r.Age
		}
		if r.Stratum != nil {
			props["stratum"] = *r.Stratum
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.PersonID,
			Geometry:   r.PersonLocation.Geom(),
			Properties: props,
		})
	}
	return fc
}

// WriteRecordsGeoJSON writes the records as a GeoJSON FeatureCollection.
func WriteRecordsGeoJSON(w io.Writer, records []access.Record) error {
	if err := json.NewEncoder(w).Encode(RecordsFeatureCollection(records)); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
