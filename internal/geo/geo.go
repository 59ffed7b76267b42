package geo

import (
	"math"

	"ambulance/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// ArrivalThresholdKm is the distance below which a driver is classified
// as arrived at the pickup point (200 meters).
const ArrivalThresholdKm = 0.2

// HaversineKm computes the great-circle distance between two coordinates
// in kilometers. Symmetric and non-negative; zero iff the points coincide.
func HaversineKm(a, b domain.Coordinate) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Evaluator classifies proximity to a fixed pickup point.
type Evaluator struct {
	pickup domain.Coordinate
}

// NewEvaluator creates an Evaluator anchored at the pickup coordinate.
func NewEvaluator(pickup domain.Coordinate) Evaluator {
	return Evaluator{pickup: pickup}
}

// DistanceKm returns the distance from the given position to the pickup.
func (e Evaluator) DistanceKm(pos domain.Coordinate) float64 {
	return HaversineKm(pos, e.pickup)
}

// Near reports whether the position is within the arrival threshold of
// the pickup. There is no hysteresis: moving back out past the threshold
// immediately reverts the classification.
func (e Evaluator) Near(pos domain.Coordinate) bool {
	return e.DistanceKm(pos) <= ArrivalThresholdKm
}
