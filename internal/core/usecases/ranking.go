package usecases

import (
	"sort"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/pkg/geospatial"
)

// Rank annotates every school with its planar distance to origin and returns
// them nearest first. Schools at equal distance keep no particular order.
func Rank(schools []domain.School, origin domain.GeoPoint) []domain.RankedSchool {
	ranked := make([]domain.RankedSchool, len(schools))
	for i, s := range schools {
		ranked[i] = domain.RankedSchool{
			School:   s,
			Distance: geospatial.Planar(origin.Lat, origin.Lon, s.Latitude, s.Longitude),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}
