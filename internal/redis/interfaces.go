package redis

import "context"

// LocationStoreInterface defines the interface for ambulance position operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, ambulanceID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]AmbulanceLocation, error)
	RemoveLocation(ctx context.Context, ambulanceID string) error
}

// OTPStoreInterface defines the interface for trip OTP storage.
type OTPStoreInterface interface {
	SetOTP(ctx context.Context, tripID, otp string) error
	GetOTP(ctx context.Context, tripID string) (string, error)
	DeleteOTP(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ OTPStoreInterface      = (*OTPStore)(nil)
)
