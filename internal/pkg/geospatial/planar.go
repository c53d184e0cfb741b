package geospatial

import "math"

// Planar returns the Euclidean distance between two coordinates treated as
// points on a flat plane, in degrees. It is not a geodesic distance; it is only
// meant for ranking points relative to a nearby origin.
func Planar(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
