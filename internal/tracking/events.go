package tracking

import (
	"time"

	"ambulance/internal/domain"
)

// PositionEvent is the wire format for one throttled position sample,
// shared by the agent uplink and the server hub.
type PositionEvent struct {
	DriverID         string    `json:"driverId"`
	AmbulanceID      string    `json:"ambulanceID"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Accuracy         float64   `json:"accuracy"`
	Timestamp        time.Time `json:"timestamp"`
	Altitude         float64   `json:"altitude"`
	AltitudeAccuracy float64   `json:"altitudeAccuracy"`
	Heading          float64   `json:"heading"`
	Speed            float64   `json:"speed"`
}

// NewPositionEvent builds the wire event for a sample.
func NewPositionEvent(driverID, ambulanceID string, s domain.PositionSample) PositionEvent {
	return PositionEvent{
		DriverID:         driverID,
		AmbulanceID:      ambulanceID,
		Latitude:         s.Coord.Lat,
		Longitude:        s.Coord.Lng,
		Accuracy:         s.AccuracyM,
		Timestamp:        s.CapturedAt,
		Altitude:         s.AltitudeM,
		AltitudeAccuracy: s.AltitudeAccuracy,
		Heading:          s.HeadingDeg,
		Speed:            s.SpeedMPS,
	}
}

// Coord returns the event's coordinate pair.
func (e PositionEvent) Coord() domain.Coordinate {
	return domain.Coordinate{Lat: e.Latitude, Lng: e.Longitude}
}

// TripEvent is the server-to-driver push carrying an authoritative trip
// state, sent down the same socket the positions go up.
type TripEvent struct {
	Type string   `json:"type"` // "trip_update"
	Trip TripData `json:"trip"`
}

// TripData is the trip payload inside a TripEvent.
type TripData struct {
	ID          string    `json:"id"`
	DriverID    string    `json:"driver_id"`
	AmbulanceID string    `json:"ambulance_id"`
	Status      string    `json:"status"`
	PickupLat   float64   `json:"pickup_lat"`
	PickupLng   float64   `json:"pickup_lng"`
	DropLat     float64   `json:"drop_lat"`
	DropLng     float64   `json:"drop_lng"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewTripEvent builds the push event for a trip.
func NewTripEvent(t *domain.Trip) TripEvent {
	return TripEvent{
		Type: "trip_update",
		Trip: TripData{
			ID:          t.ID,
			DriverID:    t.DriverID,
			AmbulanceID: t.AmbulanceID,
			Status:      string(t.Status),
			PickupLat:   t.Pickup.Lat,
			PickupLng:   t.Pickup.Lng,
			DropLat:     t.Drop.Lat,
			DropLng:     t.Drop.Lng,
			RequestedAt: t.RequestedAt,
		},
	}
}

// ToDomain converts the pushed payload back into a domain trip.
func (d TripData) ToDomain() *domain.Trip {
	return &domain.Trip{
		ID:          d.ID,
		DriverID:    d.DriverID,
		AmbulanceID: d.AmbulanceID,
		Status:      domain.TripStatus(d.Status),
		Pickup:      domain.Coordinate{Lat: d.PickupLat, Lng: d.PickupLng},
		Drop:        domain.Coordinate{Lat: d.DropLat, Lng: d.DropLng},
		RequestedAt: d.RequestedAt,
	}
}
