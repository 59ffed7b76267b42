package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidAmbulanceID is returned when ambulance ID is empty.
	ErrInvalidAmbulanceID = errors.New("invalid ambulance id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropLocation is returned when drop coordinates are invalid.
	ErrInvalidDropLocation = errors.New("invalid drop location")

	// ErrInvalidLocation is returned when position coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrDriverHasActiveTrip is returned when a driver already has a
	// non-terminal trip. At most one active trip exists per driver.
	ErrDriverHasActiveTrip = errors.New("driver already has an active trip")

	// ErrInvalidTransition is returned when the requested status change
	// is not an edge of the trip lifecycle.
	ErrInvalidTransition = errors.New("invalid trip state transition")

	// ErrTripTerminal is returned when operating on a trip that already
	// reached a terminal state.
	ErrTripTerminal = errors.New("trip already in terminal state")

	// ErrOTPTooShort is returned when the submitted code has fewer than
	// 4 digits.
	ErrOTPTooShort = errors.New("otp must be at least 4 digits")

	// ErrOTPMismatch is returned when the submitted code does not match
	// the trip's code. Recoverable: the trip stays in arrived.
	ErrOTPMismatch = errors.New("otp mismatch")

	// ErrInvalidCancelParty is returned when the cancelling party is
	// neither patient nor driver.
	ErrInvalidCancelParty = errors.New("cancel party must be patient or driver")
)
