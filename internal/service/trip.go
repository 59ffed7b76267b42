package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/observability"
	internalredis "ambulance/internal/redis"
	"ambulance/internal/repository"
)

// TripPusher delivers authoritative trip state to the driver's tracking
// channel. Push failures are tolerated: the agent reconciles on its next
// fetch.
type TripPusher interface {
	PushTrip(driverID string, trip *domain.Trip) error
}

// TripService owns the authoritative trip lifecycle on the server. All
// transitions are validated against the lifecycle edge set; the server's
// decision always wins over the driver's provisional local state.
type TripService struct {
	tripRepo   repository.TripRepository
	driverRepo repository.DriverRepository
	otpStore   internalredis.OTPStoreInterface
	cacheStore *internalredis.CacheStore
	pusher     TripPusher
	log        zerolog.Logger
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	otpStore internalredis.OTPStoreInterface,
	cacheStore *internalredis.CacheStore,
	pusher TripPusher,
	log zerolog.Logger,
) *TripService {
	return &TripService{
		tripRepo:   tripRepo,
		driverRepo: driverRepo,
		otpStore:   otpStore,
		cacheStore: cacheStore,
		pusher:     pusher,
		log:        log.With().Str("component", "trip-service").Logger(),
	}
}

// DispatchRequest contains the parameters for dispatching an ambulance.
type DispatchRequest struct {
	DriverID    string
	AmbulanceID string
	Pickup      domain.Coordinate
	Drop        domain.Coordinate
}

// Dispatch creates a trip in searching state for a driver and generates
// the verification code the patient will hand to the driver on pickup.
func (s *TripService) Dispatch(ctx context.Context, req DispatchRequest) (*domain.Trip, string, error) {
	if req.DriverID == "" {
		return nil, "", ErrInvalidDriverID
	}
	if req.AmbulanceID == "" {
		return nil, "", ErrInvalidAmbulanceID
	}
	if !req.Pickup.Valid() {
		return nil, "", ErrInvalidPickupLocation
	}
	if !req.Drop.Valid() {
		return nil, "", ErrInvalidDropLocation
	}

	// At most one active trip per driver.
	existing, err := s.tripRepo.GetActiveByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrDriverHasActiveTrip
	}

	trip := &domain.Trip{
		ID:          uuid.New().String(),
		DriverID:    req.DriverID,
		AmbulanceID: req.AmbulanceID,
		Pickup:      req.Pickup,
		Drop:        req.Drop,
		Status:      domain.TripStatusSearching,
		RequestedAt: time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, "", err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, "", err
	}
	if err := s.otpStore.SetOTP(ctx, trip.ID, otp); err != nil {
		return nil, "", err
	}

	observability.TripTransitions.WithLabelValues(string(domain.TripStatusSearching)).Inc()
	s.log.Info().Str("trip_id", trip.ID).Str("driver_id", trip.DriverID).Msg("trip dispatched")
	return trip, otp, nil
}

// Accept moves the trip from searching to accepted and marks the driver
// on-trip.
func (s *TripService) Accept(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, domain.TripStatusAccepted, func(t *domain.Trip, now time.Time) {
		t.AcceptedAt = now
	})
}

// ActiveByDriver returns the driver's current trip, or nil when none
// exists. An empty result is a regular outcome, not an error.
func (s *TripService) ActiveByDriver(ctx context.Context, driverID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetActiveTrip(ctx, driverID); err == nil && cached != nil {
			return &domain.Trip{
				ID:          cached.ID,
				DriverID:    cached.DriverID,
				AmbulanceID: cached.AmbulanceID,
				Status:      domain.TripStatus(cached.Status),
				Pickup:      domain.Coordinate{Lat: cached.PickupLat, Lng: cached.PickupLng},
				Drop:        domain.Coordinate{Lat: cached.DropLat, Lng: cached.DropLng},
			}, nil
		}
	}

	trip, err := s.tripRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if trip != nil && s.cacheStore != nil {
		_ = s.cacheStore.SetActiveTrip(ctx, driverID, &internalredis.CachedTrip{
			ID:          trip.ID,
			DriverID:    trip.DriverID,
			AmbulanceID: trip.AmbulanceID,
			Status:      string(trip.Status),
			PickupLat:   trip.Pickup.Lat,
			PickupLng:   trip.Pickup.Lng,
			DropLat:     trip.Drop.Lat,
			DropLng:     trip.Drop.Lng,
		})
	}

	return trip, nil
}

// MarkArrived moves the trip from accepted to arrived. The agent only
// calls this once proximity and the confirmation gesture are satisfied;
// the server validates the lifecycle edge.
func (s *TripService) MarkArrived(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, domain.TripStatusArrived, func(t *domain.Trip, now time.Time) {
		t.ArrivedAt = now
	})
}

// VerifyOTP checks the submitted code and, on match, advances the trip
// from arrived to in_progress. A mismatch leaves the trip unchanged and
// is retryable without limit.
func (s *TripService) VerifyOTP(ctx context.Context, tripID, otp string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if len(otp) < 4 {
		return nil, ErrOTPTooShort
	}

	stored, err := s.otpStore.GetOTP(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != otp {
		return nil, ErrOTPMismatch
	}

	return s.transition(ctx, tripID, domain.TripStatusInProgress, func(t *domain.Trip, now time.Time) {
		t.StartedAt = now
	})
}

// Complete moves the trip from in_progress to completed and releases
// the driver.
func (s *TripService) Complete(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.transition(ctx, tripID, domain.TripStatusCompleted, func(t *domain.Trip, now time.Time) {
		t.CompletedAt = now
	})
	if err != nil {
		return nil, err
	}

	s.finishTrip(ctx, trip)
	return trip, nil
}

// Cancel terminates the trip on behalf of the patient or the driver.
// Accepted from any active state; the push overrides whatever the agent
// is doing locally.
func (s *TripService) Cancel(ctx context.Context, tripID, by string) (*domain.Trip, error) {
	var target domain.TripStatus
	switch by {
	case "patient":
		target = domain.TripStatusCancelledByPatient
	case "driver":
		target = domain.TripStatusCancelledByDriver
	default:
		return nil, ErrInvalidCancelParty
	}

	trip, err := s.transition(ctx, tripID, target, func(t *domain.Trip, now time.Time) {
		t.CancelledAt = now
	})
	if err != nil {
		return nil, err
	}

	s.finishTrip(ctx, trip)
	return trip, nil
}

// Expire times the trip out before pickup.
func (s *TripService) Expire(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.transition(ctx, tripID, domain.TripStatusExpired, func(t *domain.Trip, now time.Time) {
		t.ExpiredAt = now
	})
	if err != nil {
		return nil, err
	}

	s.finishTrip(ctx, trip)
	return trip, nil
}

// transition loads the trip, validates the lifecycle edge, applies the
// timestamp, persists and pushes the new state to the driver.
func (s *TripService) transition(ctx context.Context, tripID string, to domain.TripStatus, stamp func(*domain.Trip, time.Time)) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status.Terminal() {
		return nil, ErrTripTerminal
	}
	if !domain.CanTransition(trip.Status, to) {
		return nil, ErrInvalidTransition
	}

	trip.Status = to
	stamp(trip, time.Now())

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateActiveTrip(ctx, trip.DriverID)
	}

	if to == domain.TripStatusAccepted {
		if err := s.driverRepo.UpdateStatus(ctx, trip.DriverID, domain.DriverStatusOnTrip); err != nil && err != repository.ErrNotFound {
			s.log.Warn().Err(err).Str("driver_id", trip.DriverID).Msg("driver status update failed")
		}
	}

	if s.pusher != nil {
		if err := s.pusher.PushTrip(trip.DriverID, trip); err != nil {
			// Driver offline. The agent reconciles on its next fetch.
			s.log.Debug().Err(err).Str("trip_id", trip.ID).Msg("trip push skipped")
		}
	}

	observability.TripTransitions.WithLabelValues(string(to)).Inc()
	s.log.Info().Str("trip_id", trip.ID).Str("status", string(to)).Msg("trip transitioned")
	return trip, nil
}

// finishTrip runs terminal-state housekeeping: the OTP is discarded and
// the driver returns to the duty pool.
func (s *TripService) finishTrip(ctx context.Context, trip *domain.Trip) {
	_ = s.otpStore.DeleteOTP(ctx, trip.ID)
	if err := s.driverRepo.UpdateStatus(ctx, trip.DriverID, domain.DriverStatusOnDuty); err != nil && err != repository.ErrNotFound {
		s.log.Warn().Err(err).Str("driver_id", trip.DriverID).Msg("driver status reset failed")
	}
}

// generateOTP produces a 4-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
