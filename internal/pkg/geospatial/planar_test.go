package geospatial

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPlanar_Known(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"same point", 40, -73, 40, -73, 0},
		{"3-4-5", 0, 0, 3, 4, 5},
		{"negative deltas", 10, 10, 7, 6, 5},
		{"across meridian", 0, -1, 0, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Planar(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Planar() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProperty_Planar(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("distance from a point to itself is zero", prop.ForAll(
		func(lat, lon float64) bool {
			return Planar(lat, lon, lat, lon) == 0
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.Property("distance is non-negative and symmetric", prop.ForAll(
		func(lat1, lon1, lat2, lon2 float64) bool {
			d := Planar(lat1, lon1, lat2, lon2)
			return d >= 0 && d == Planar(lat2, lon2, lat1, lon1)
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}
