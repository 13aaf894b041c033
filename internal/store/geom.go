package store

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/access-cli/internal/geo"
)

// encodePoint returns the EWKB encoding of p with SRID 4326.
func encodePoint(p geo.Point) ([]byte, error) {
	data, err := ewkb.Marshal(p.Geom(), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode point")
	}
	return data, nil
}

// decodePoint parses an EWKB point.
func decodePoint(data []byte) (geo.Point, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return geo.Point{}, eris.Wrap(err, "store: decode point")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return geo.Point{}, eris.Errorf("store: expected point geometry, got %T", g)
	}
	return geo.Point{Lat: pt.Y(), Lon: pt.X()}, nil
}
