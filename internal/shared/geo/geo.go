package geo

import "math"

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLng*sinLng

	// rounding can push h slightly outside [0,1] near antipodes
	h = math.Max(0, math.Min(1, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidLatLng reports whether lat/lng are finite and inside [-90,90] / [-180,180].
func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
