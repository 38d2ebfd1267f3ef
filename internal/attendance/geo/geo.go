package geo

import "math"

const earthRadiusMeters = 6371.0 * 1000

// Bounds accepted for a configured geofence radius.
const (
	MinRadiusMeters = 50
	MaxRadiusMeters = 1000
)

// GeoPoint describes geographic coordinates (WGS84, degrees).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DistanceTo returns the great-circle distance to other in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return Distance(p.Lat, p.Lon, other.Lat, other.Lon)
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p GeoPoint) Valid() bool {
	return ValidCoordinate(p.Lat, p.Lon)
}

// Distance computes the haversine distance in meters between two points given in degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := lat2Rad - lat1Rad
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a slightly past 1 for antipodal points
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// ValidCoordinate reports whether lat is in [-90, 90] and lon is in [-180, 180].
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidRadius reports whether a geofence radius is inside [MinRadiusMeters, MaxRadiusMeters].
func ValidRadius(radiusMeters int) bool {
	return radiusMeters >= MinRadiusMeters && radiusMeters <= MaxRadiusMeters
}

func toRadians(v float64) float64 {
	return v * math.Pi / 180
}
