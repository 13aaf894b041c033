package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBand(t *testing.T) {
	tests := []struct {
		name     string
		km       float64
		expected string
	}{
		{name: "zero distance", km: 0.0, expected: Band0To2},
		{name: "near", km: 1.3, expected: Band0To2},
		{name: "exactly 2 km stays in first band", km: 2.0, expected: Band0To2},
		{name: "just past 2 km", km: 2.0001, expected: Band2To5},
		{name: "exactly 5 km", km: 5.0, expected: Band2To5},
		{name: "medium", km: 7.5, expected: Band5To10},
		{name: "exactly 10 km", km: 10.0, expected: Band5To10},
		{name: "just past 10 km", km: 10.01, expected: BandOver10},
		{name: "far", km: 42.0, expected: BandOver10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Band(tt.km))
			assert.Equal(t, tt.expected, Bands[BandIndex(tt.km)])
		})
	}
}
