package domain

import "time"

// TripStatus represents the current status of an ambulance trip.
type TripStatus string

const (
	TripStatusSearching          TripStatus = "searching"
	TripStatusAccepted           TripStatus = "accepted"
	TripStatusArrived            TripStatus = "arrived"
	TripStatusInProgress         TripStatus = "in_progress"
	TripStatusCompleted          TripStatus = "completed"
	TripStatusCancelledByPatient TripStatus = "cancelled_by_patient"
	TripStatusCancelledByDriver  TripStatus = "cancelled_by_driver"
	TripStatusExpired            TripStatus = "expired"
)

// Terminal reports whether the status is a final state. No transition
// succeeds out of a terminal state.
func (s TripStatus) Terminal() bool {
	switch s {
	case TripStatusCompleted, TripStatusCancelledByPatient, TripStatusCancelledByDriver, TripStatusExpired:
		return true
	}
	return false
}

// transitions is the directed edge set of the trip lifecycle.
var transitions = map[TripStatus][]TripStatus{
	TripStatusSearching: {
		TripStatusAccepted,
		TripStatusExpired,
	},
	TripStatusAccepted: {
		TripStatusArrived,
		TripStatusCancelledByPatient,
		TripStatusCancelledByDriver,
		TripStatusExpired,
	},
	TripStatusArrived: {
		TripStatusInProgress,
		TripStatusCancelledByPatient,
		TripStatusCancelledByDriver,
	},
	TripStatusInProgress: {
		TripStatusCompleted,
		TripStatusCancelledByPatient,
		TripStatusCancelledByDriver,
	},
}

// CanTransition reports whether the trip lifecycle permits moving from one
// status to another.
func CanTransition(from, to TripStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Trip represents a single dispatch-to-completion ambulance assignment.
// Exactly one non-terminal trip may exist per driver at a time.
type Trip struct {
	ID          string
	DriverID    string
	AmbulanceID string
	Pickup      Coordinate
	Drop        Coordinate
	Status      TripStatus
	RequestedAt time.Time
	AcceptedAt  time.Time
	ArrivedAt   time.Time
	StartedAt   time.Time // entered in_progress
	CompletedAt time.Time
	CancelledAt time.Time
	ExpiredAt   time.Time
}

// Active reports whether the trip exists and is in a non-terminal state.
func (t *Trip) Active() bool {
	return t != nil && !t.Status.Terminal()
}

// Clone returns a copy of the trip, safe to hand across goroutines.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
