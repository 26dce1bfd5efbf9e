// Package corroboration decides whether two reports describe the same event.
//
// Two reports corroborate each other when they were filed by different
// vehicles, carry the same event type, lie within MaxDistanceKm of each
// other on the great circle and were filed within TimeWindow of each other.
//
// Coordinates are compared with ordinary IEEE float semantics. A NaN
// latitude or longitude makes the haversine distance NaN, every comparison
// against NaN is false, and the reports therefore never corroborate. No
// special case exists for this.
package corroboration

import (
	"math"
	"time"

	"github.com/rsuchain/rsuchain/types"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// MaxDistanceKm is the largest distance at which reports corroborate.
	MaxDistanceKm = 0.5

	// TimeWindow is the largest time difference at which reports corroborate.
	TimeWindow = 30 * time.Minute
)

// Corroborates reports whether a and b corroborate each other. It is pure
// and symmetric.
func Corroborates(a, b types.Report) bool {
	if a.ReportID == b.ReportID || a.VehicleID == b.VehicleID {
		return false
	}
	if a.EventType != b.EventType {
		return false
	}
	if !(Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude) <= MaxDistanceKm) {
		return false
	}
	d := a.TimeStamp.Sub(b.TimeStamp)
	return d >= -TimeWindow && d <= TimeWindow
}

// Distance returns the great-circle distance in kilometres between two
// points given in degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
