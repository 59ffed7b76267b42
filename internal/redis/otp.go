package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OTPStore holds the per-trip verification code. The code lives as long
// as the trip: it is set at dispatch and deleted when the trip reaches a
// terminal state.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(tripID string) string {
	return fmt.Sprintf("trip:otp:%s", tripID)
}

// SetOTP stores the code for a trip.
func (s *OTPStore) SetOTP(ctx context.Context, tripID, otp string) error {
	return s.client.Set(ctx, otpKey(tripID), otp, 0).Err()
}

// GetOTP retrieves the code for a trip. Returns empty string when no
// code is stored.
func (s *OTPStore) GetOTP(ctx context.Context, tripID string) (string, error) {
	otp, err := s.client.Get(ctx, otpKey(tripID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return otp, nil
}

// DeleteOTP removes the code once the trip is finished.
func (s *OTPStore) DeleteOTP(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, otpKey(tripID)).Err()
}
