package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the mean Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// SRID is the spatial reference used for every exported geometry (WGS 84).
const SRID = 4326

// ErrInvalidCoordinate is returned when a latitude or longitude is outside
// its valid range.
var ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate reports whether the point lies within [-90,90] x [-180,180].
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %v out of range", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %v out of range", p.Lon)
	}
	return nil
}

// Geom converts the point to a go-geom point with XY = (lon, lat).
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(SRID)
}

// HaversineKM returns the great-circle distance in kilometers between
// (lon1, lat1) and (lon2, lat2). Inputs are not validated.
func HaversineKM(lon1, lat1, lon2, lat2 float64) float64 {
	lon1, lat1 = radians(lon1), radians(lat1)
	lon2, lat2 = radians(lon2), radians(lat2)

	dlon := lon2 - lon1
	dlat := lat2 - lat1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKM * c
}

// Distance returns the haversine distance in kilometers between two points.
func Distance(a, b Point) float64 {
	return HaversineKM(a.Lon, a.Lat, b.Lon, b.Lat)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
