// Package geo provides great-circle distance, distance banding, and
// region centroid lookup for accessibility analysis.
package geo

// Distance band labels, in histogram order.
const (
	Band0To2   = "0-2 km"
	Band2To5   = "2-5 km"
	Band5To10  = "5-10 km"
	BandOver10 = ">10 km"
)

// Upper bounds of each band (kilometers, inclusive).
const (
	nearThreshold   = 2.0
	mediumThreshold = 5.0
	farThreshold    = 10.0
)

// Bands lists every band label in ascending distance order.
var Bands = []string{Band0To2, Band2To5, Band5To10, BandOver10}

// Band returns the distance band for a distance in kilometers.
// Rules:
//   - 0-2 km: distance <= 2
//   - 2-5 km: 2 < distance <= 5
//   - 5-10 km: 5 < distance <= 10
//   - >10 km: distance > 10
func Band(km float64) string {
	switch {
	case km <= nearThreshold:
		return Band0To2
	case km <= mediumThreshold:
		return Band2To5
	case km <= farThreshold:
		return Band5To10
	default:
		return BandOver10
	}
}

// BandIndex returns the position of Band(km) within Bands.
func BandIndex(km float64) int {
	band := Band(km)
	for i, b := range Bands {
		if b == band {
			return i
		}
	}
	return len(Bands) - 1
}
