package trip

import "errors"

var (
	// ErrNoActiveTrip is returned when an operation needs an active trip
	// and none is held locally.
	ErrNoActiveTrip = errors.New("no active trip")

	// ErrOTPTooShort is returned when the submitted code has fewer than
	// 4 digits. Rejected locally before any network call.
	ErrOTPTooShort = errors.New("otp must be at least 4 digits")

	// ErrOTPNotNumeric is returned when the submitted code contains
	// non-digit characters.
	ErrOTPNotNumeric = errors.New("otp must be numeric")

	// ErrNotNearPickup is returned when arrival is confirmed outside the
	// 200 m proximity threshold.
	ErrNotNearPickup = errors.New("not within arrival threshold of pickup")

	// ErrWrongState is returned when the requested transition is not
	// legal from the trip's current status.
	ErrWrongState = errors.New("transition not allowed from current trip state")

	// ErrNotConfirmed is returned when a transition requiring explicit
	// driver confirmation is attempted without it.
	ErrNotConfirmed = errors.New("driver confirmation required")
)
