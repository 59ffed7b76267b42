package domain

import "time"

// Coordinate is a latitude/longitude pair in signed decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// PositionSample is a single device position fix. Samples are ephemeral:
// each one is consumed immediately and never persisted beyond the most
// recent fix needed for throttling.
type PositionSample struct {
	Coord            Coordinate
	AccuracyM        float64
	AltitudeM        float64
	AltitudeAccuracy float64
	HeadingDeg       float64
	SpeedMPS         float64
	CapturedAt       time.Time
}
