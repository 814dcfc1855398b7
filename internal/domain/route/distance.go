package route

import "math"

const earthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance between two points in meters.
func HaversineDistance(a, b GeoPoint) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLng := degreesToRadians(b.Longitude - a.Longitude)

	lat1Rad := degreesToRadians(a.Latitude)
	lat2Rad := degreesToRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// PathLength sums the distances between consecutive points of a route.
func PathLength(points []GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineDistance(points[i-1], points[i])
	}
	return total
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
