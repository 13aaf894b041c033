package geo

import (
	_ "embed"
	"math/rand/v2"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed centroids.yaml
var defaultCentroidsYAML []byte

// Default jitter applied around centroids when the table does not set one.
const (
	defaultJitterDeg         = 0.01
	defaultFallbackJitterDeg = 0.02
)

// Centroid is a named region and its approximate center.
type Centroid struct {
	Name  string
	Key   string // normalized name used for matching
	Point Point
}

// CentroidTable maps region names to approximate centers. Entry order is
// significant: the first matching entry wins.
type CentroidTable struct {
	City              Centroid
	Regions           []Centroid
	JitterDeg         float64
	FallbackJitterDeg float64
}

type centroidEntry struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type centroidFile struct {
	City              centroidEntry   `yaml:"city"`
	JitterDeg         float64         `yaml:"jitter_deg"`
	FallbackJitterDeg float64         `yaml:"fallback_jitter_deg"`
	Regions           []centroidEntry `yaml:"regions"`
}

// DefaultCentroids returns the embedded Bogota locality table.
func DefaultCentroids() *CentroidTable {
	t, err := ParseCentroids(defaultCentroidsYAML)
	if err != nil {
		panic(err) // embedded file is validated by tests
	}
	return t
}

// LoadCentroids reads a centroid table from a YAML file. An empty path
// returns the embedded default table.
func LoadCentroids(path string) (*CentroidTable, error) {
	if path == "" {
		return DefaultCentroids(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read centroids %s", path)
	}
	return ParseCentroids(data)
}

// ParseCentroids decodes a YAML centroid table.
func ParseCentroids(data []byte) (*CentroidTable, error) {
	var f centroidFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "geo: decode centroids")
	}
	if len(f.Regions) == 0 {
		return nil, eris.New("geo: centroid table has no regions")
	}

	t := &CentroidTable{
		City:              toCentroid(f.City),
		JitterDeg:         f.JitterDeg,
		FallbackJitterDeg: f.FallbackJitterDeg,
		Regions:           make([]Centroid, 0, len(f.Regions)),
	}
	if t.JitterDeg <= 0 {
		t.JitterDeg = defaultJitterDeg
	}
	if t.FallbackJitterDeg <= 0 {
		t.FallbackJitterDeg = defaultFallbackJitterDeg
	}
	if err := t.City.Point.Validate(); err != nil {
		return nil, eris.Wrap(err, "geo: city centroid")
	}

	for _, e := range f.Regions {
		c := toCentroid(e)
		if c.Key == "" {
			return nil, eris.New("geo: centroid entry without a name")
		}
		if err := c.Point.Validate(); err != nil {
			return nil, eris.Wrapf(err, "geo: centroid %s", c.Name)
		}
		t.Regions = append(t.Regions, c)
	}
	return t, nil
}

func toCentroid(e centroidEntry) Centroid {
	return Centroid{
		Name:  e.Name,
		Key:   NormalizeRegion(e.Name),
		Point: Point{Lat: e.Latitude, Lon: e.Longitude},
	}
}

// Match returns the first centroid whose normalized name contains, or is
// contained in, the normalized region. Empty regions never match.
func (t *CentroidTable) Match(region string) (Centroid, bool) {
	key := NormalizeRegion(region)
	if key == "" {
		return Centroid{}, false
	}
	for _, c := range t.Regions {
		if strings.Contains(c.Key, key) || strings.Contains(key, c.Key) {
			return c, true
		}
	}
	return Centroid{}, false
}

// Locate returns an approximate point for a region: its centroid plus
// uniform jitter, or the city center with wider jitter when no region
// matches.
func (t *CentroidTable) Locate(region string, rng *rand.Rand) Point {
	if c, ok := t.Match(region); ok {
		return jitter(c.Point, t.JitterDeg, rng)
	}
	return jitter(t.City.Point, t.FallbackJitterDeg, rng)
}

func jitter(p Point, deg float64, rng *rand.Rand) Point {
	return Point{
		Lat: p.Lat + uniform(rng, -deg, deg),
		Lon: p.Lon + uniform(rng, -deg, deg),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// NormalizeRegion upper-cases a region name, strips diacritics, and
// collapses whitespace so "Antonio Nariño" and "ANTONIO NARINO" compare equal.
func NormalizeRegion(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	upper := cases.Upper(language.Und).String(stripped)
	return strings.Join(strings.Fields(upper), " ")
}
