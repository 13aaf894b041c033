package geo

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestHaversine_Symmetry(t *testing.T) {
	pairs := [][2]Point{
		{{Lat: 4.6097, Lon: -74.0817}, {Lat: 4.7174, Lon: -74.0303}},
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 5}},
		{{Lat: -33.8688, Lon: 151.2093}, {Lat: 51.5074, Lon: -0.1278}},
		{{Lat: 89.9, Lon: 10}, {Lat: -89.9, Lon: -170}},
	}
	for _, p := range pairs {
		assert.InDelta(t, Distance(p[0], p[1]), Distance(p[1], p[0]), 1e-9)
	}
}

func TestHaversine_Identity(t *testing.T) {
	p := Point{Lat: 4.6097, Lon: -74.0817}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	a := Point{Lat: 4.6097, Lon: -74.0817}
	b := Point{Lat: 5.6097, Lon: -74.0817}
	assert.InDelta(t, 111.19, Distance(a, b), 0.5)
}

func TestHaversine_ArgumentOrder(t *testing.T) {
	// HaversineKM takes longitude before latitude.
	got := HaversineKM(-74.0817, 4.6097, -74.0817, 5.6097)
	assert.InDelta(t, 111.19, got, 0.5)
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 180})
	assert.InDelta(t, 20015.09, d, 0.1)
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		valid bool
	}{
		{name: "bogota", point: Point{Lat: 4.6, Lon: -74.08}, valid: true},
		{name: "poles and dateline", point: Point{Lat: 90, Lon: -180}, valid: true},
		{name: "latitude too high", point: Point{Lat: 91, Lon: 0}},
		{name: "latitude too low", point: Point{Lat: -90.5, Lon: 0}},
		{name: "longitude too high", point: Point{Lat: 0, Lon: 181}},
		{name: "swapped lat/lon", point: Point{Lat: -74.08, Lon: 4.6}, valid: true},
		{name: "swapped out of range", point: Point{Lat: -174.08, Lon: 4.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidCoordinate))
		})
	}
}

func TestPointGeom(t *testing.T) {
	g := Point{Lat: 4.6, Lon: -74.08}.Geom()
	assert.Equal(t, geom.XY, g.Layout())
	assert.Equal(t, SRID, g.SRID())
	assert.InDelta(t, -74.08, g.X(), 1e-12)
	assert.InDelta(t, 4.6, g.Y(), 1e-12)
}
