// Package export writes accessibility results as CSV and GeoJSON.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/access"
)

// RecordColumns is the header written by WriteRecordsCSV.
var RecordColumns = []string{
	"persona_id",
	"persona_localidad",
	"persona_latitud",
	"persona_longitud",
	"centro_cercano_id",
	"centro_cercano_nombre",
	"centro_cercano_localidad",
	"distancia_km",
	"misma_localidad",
	"persona_edad",
	"persona_genero",
	"persona_nivel_educativo",
	"persona_afiliacion_salud",
	"persona_estrato",
}

// RegionColumns is the header written by WriteRegionSummaryCSV.
var RegionColumns = []string{
	"localidad",
	"dist_promedio",
	"dist_mediana",
	"poblacion",
	"acceso_local",
	"pct_acceso_local",
}

// FacilityColumns is the header written by WriteFacilitiesCSV.
var FacilityColumns = []string{
	"id",
	"nombre",
	"localidad",
	"latitud",
	"longitud",
	"capacidad",
}

// WriteRecordsCSV writes one row per accessibility record.
func WriteRecordsCSV(w io.Writer, records []access.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordColumns); err != nil {
		return eris.Wrap(err, "export: write records header")
	}
	for _, r := range records {
		row := []string{
			r.PersonID,
			r.PersonRegion,
			formatFloat(r.PersonLocation.Lat),
			formatFloat(r.PersonLocation.Lon),
			r.FacilityID,
			r.FacilityName,
			r.FacilityRegion,
			strconv.FormatFloat(r.DistanceKM, 'f', 3, 64),
			strconv.FormatBool(r.SameRegion),
			formatOptionalInt(r.Age),
			r.Gender,
			r.EducationLevel,
			r.HealthCoverage,
			formatOptionalInt(r.Stratum),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write records row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush records")
}

// WriteRegionSummaryCSV writes one row per region summary.
func WriteRegionSummaryCSV(w io.Writer, summaries []access.RegionSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RegionColumns); err != nil {
		return eris.Wrap(err, "export: write regions header")
	}
	for _, s := range summaries {
		row := []string{
			s.Region,
			strconv.FormatFloat(s.MeanKM, 'f', 2, 64),
			strconv.FormatFloat(s.MedianKM, 'f', 2, 64),
			strconv.Itoa(s.Population),
			strconv.Itoa(s.SameRegionCount),
			strconv.FormatFloat(s.PctSameRegion, 'f', 1, 64),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write regions row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush regions")
}

// WriteFacilitiesCSV writes the processed facility set, including any
// approximated coordinates.
func WriteFacilitiesCSV(w io.Writer, facilities []access.Facility) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FacilityColumns); err != nil {
		return eris.Wrap(err, "export: write facilities header")
	}
	for _, f := range facilities {
		row := []string{
			f.ID,
			f.Name,
			f.Region,
			formatFloat(f.Location.Lat),
			formatFloat(f.Location.Lon),
			formatOptionalInt(f.Capacity),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write facilities row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush facilities")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
