package usecases_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/core/usecases"
	"github.com/samirrijal/schoolfinder/internal/pkg/geospatial"
)

func TestRank_Order(t *testing.T) {
	schools := []domain.School{
		{ID: 1, Name: "Far", Latitude: 10, Longitude: 10},
		{ID: 2, Name: "Here", Latitude: 0, Longitude: 0},
		{ID: 3, Name: "Near", Latitude: 3, Longitude: 4},
	}

	ranked := usecases.Rank(schools, domain.GeoPoint{})

	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)
	assert.Equal(t, 0.0, ranked[0].Distance)
	assert.InDelta(t, 5.0, ranked[1].Distance, 1e-9)
}

func TestRank_Empty(t *testing.T) {
	ranked := usecases.Rank(nil, domain.GeoPoint{Lat: 1, Lon: 1})
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestProperty_Rank(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	schoolGen := gen.Struct(reflect.TypeOf(domain.School{}), map[string]gopter.Gen{
		"ID":        gen.Int64Range(1, 1<<40),
		"Latitude":  gen.Float64Range(-90, 90),
		"Longitude": gen.Float64Range(-180, 180),
	})

	properties.Property("output is a permutation sorted by planar distance", prop.ForAll(
		func(schools []domain.School, lat, lon float64) bool {
			ranked := usecases.Rank(schools, domain.GeoPoint{Lat: lat, Lon: lon})
			if len(ranked) != len(schools) {
				return false
			}
			seen := make(map[int64]int)
			for _, s := range schools {
				seen[s.ID]++
			}
			for i, r := range ranked {
				if r.Distance != geospatial.Planar(lat, lon, r.Latitude, r.Longitude) {
					return false
				}
				if i > 0 && ranked[i-1].Distance > r.Distance {
					return false
				}
				seen[r.ID]--
			}
			for _, n := range seen {
				if n != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(schoolGen),
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}
