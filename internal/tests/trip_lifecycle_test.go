package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/service"
)

func newTripService(tripRepo *MockTripRepository, driverRepo *MockDriverRepository, otpStore *MockOTPStore, pusher *MockTripPusher) *service.TripService {
	return service.NewTripService(tripRepo, driverRepo, otpStore, nil, pusher, zerolog.Nop())
}

// ──────────────────────────────────────────────
// DISPATCH
// ──────────────────────────────────────────────

func TestDispatch_CreatesSearchingTripWithOTP(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	otpStore := NewMockOTPStore()
	svc := newTripService(tripRepo, driverRepo, otpStore, NewMockTripPusher())

	trip, otp, err := svc.Dispatch(context.Background(), service.DispatchRequest{
		DriverID:    "driver-1",
		AmbulanceID: "amb-1",
		Pickup:      domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Drop:        domain.Coordinate{Lat: 12.9352, Lng: 77.6245},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusSearching {
		t.Errorf("expected searching, got %s", trip.Status)
	}
	if len(otp) != 4 {
		t.Errorf("expected 4-digit otp, got %q", otp)
	}
	if otpStore.StoredOTP(trip.ID) != otp {
		t.Error("otp not stored for trip")
	}
	if trip.RequestedAt.IsZero() {
		t.Error("expected requested_at to be stamped")
	}
}

func TestDispatch_RejectsSecondActiveTripForDriver(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())

	tripRepo.AddTrip(&domain.Trip{
		ID:       "trip-1",
		DriverID: "driver-1",
		Status:   domain.TripStatusAccepted,
	})

	_, _, err := svc.Dispatch(context.Background(), service.DispatchRequest{
		DriverID:    "driver-1",
		AmbulanceID: "amb-1",
		Pickup:      domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Drop:        domain.Coordinate{Lat: 12.9352, Lng: 77.6245},
	})
	if !errors.Is(err, service.ErrDriverHasActiveTrip) {
		t.Fatalf("expected ErrDriverHasActiveTrip, got %v", err)
	}
}

func TestDispatch_AllowsNewTripAfterTerminalState(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())

	tripRepo.AddTrip(&domain.Trip{
		ID:       "trip-1",
		DriverID: "driver-1",
		Status:   domain.TripStatusCompleted,
	})

	_, _, err := svc.Dispatch(context.Background(), service.DispatchRequest{
		DriverID:    "driver-1",
		AmbulanceID: "amb-1",
		Pickup:      domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Drop:        domain.Coordinate{Lat: 12.9352, Lng: 77.6245},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ──────────────────────────────────────────────
// LIFECYCLE TRANSITIONS
// ──────────────────────────────────────────────

func TestLifecycle_HappyPath(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	otpStore := NewMockOTPStore()
	pusher := NewMockTripPusher()
	svc := newTripService(tripRepo, driverRepo, otpStore, pusher)

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnDuty})

	ctx := context.Background()
	trip, otp, err := svc.Dispatch(ctx, service.DispatchRequest{
		DriverID:    "driver-1",
		AmbulanceID: "amb-1",
		Pickup:      domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Drop:        domain.Coordinate{Lat: 12.9352, Lng: 77.6245},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if _, err := svc.Accept(ctx, trip.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got := driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnTrip {
		t.Errorf("expected driver ON_TRIP after accept, got %s", got)
	}

	if _, err := svc.MarkArrived(ctx, trip.ID); err != nil {
		t.Fatalf("arrived: %v", err)
	}

	started, err := svc.VerifyOTP(ctx, trip.ID, otp)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if started.Status != domain.TripStatusInProgress {
		t.Errorf("expected in_progress, got %s", started.Status)
	}
	if started.StartedAt.IsZero() {
		t.Error("expected started_at to be stamped")
	}

	done, err := svc.Complete(ctx, trip.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	// Terminal housekeeping: OTP gone, driver back on duty.
	if otpStore.StoredOTP(trip.ID) != "" {
		t.Error("expected otp deleted after completion")
	}
	if got := driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnDuty {
		t.Errorf("expected driver ON_DUTY after completion, got %s", got)
	}

	// Every transition was pushed toward the driver.
	if pusher.PushCallCount != 4 {
		t.Errorf("expected 4 pushes, got %d", pusher.PushCallCount)
	}
	if last := pusher.LastPush(); last == nil || last.Status != domain.TripStatusCompleted {
		t.Error("expected final push to carry completed state")
	}
}

func TestLifecycle_SkippingStatesRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusSearching})

	// searching → arrived skips accepted.
	if _, err := svc.MarkArrived(context.Background(), "trip-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// searching → completed skips everything.
	if _, err := svc.Complete(context.Background(), "trip-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLifecycle_TerminalStatesRejectAllTransitions(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.TripStatus{
		domain.TripStatusCompleted,
		domain.TripStatusCancelledByPatient,
		domain.TripStatusCancelledByDriver,
		domain.TripStatusExpired,
	} {
		tripRepo := NewMockTripRepository()
		svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())
		tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: status})

		if _, err := svc.Accept(context.Background(), "trip-1"); !errors.Is(err, service.ErrTripTerminal) {
			t.Errorf("%s: expected ErrTripTerminal on accept, got %v", status, err)
		}
		if _, err := svc.Cancel(context.Background(), "trip-1", "driver"); !errors.Is(err, service.ErrTripTerminal) {
			t.Errorf("%s: expected ErrTripTerminal on cancel, got %v", status, err)
		}
	}
}

func TestLifecycle_PushFailureDoesNotBlockTransition(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	pusher := NewMockTripPusher()
	pusher.PushError = errors.New("driver offline")
	svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), pusher)

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusSearching})

	trip, err := svc.Accept(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusAccepted {
		t.Errorf("expected accepted, got %s", trip.Status)
	}
}

// ──────────────────────────────────────────────
// OTP VERIFICATION
// ──────────────────────────────────────────────

func TestVerifyOTP_MismatchIsRecoverable(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	otpStore := NewMockOTPStore()
	svc := newTripService(tripRepo, NewMockDriverRepository(), otpStore, NewMockTripPusher())

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusArrived})
	_ = otpStore.SetOTP(context.Background(), "trip-1", "4321")

	// Wrong code: trip unchanged, retry allowed.
	if _, err := svc.VerifyOTP(context.Background(), "trip-1", "1111"); !errors.Is(err, service.ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}
	if got := tripRepo.GetTrip("trip-1").Status; got != domain.TripStatusArrived {
		t.Errorf("expected trip to stay arrived, got %s", got)
	}

	// Second wrong code still rejected; no lockout.
	if _, err := svc.VerifyOTP(context.Background(), "trip-1", "2222"); !errors.Is(err, service.ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch on retry, got %v", err)
	}

	// Correct code advances the trip.
	trip, err := svc.VerifyOTP(context.Background(), "trip-1", "4321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("expected in_progress, got %s", trip.Status)
	}
}

func TestVerifyOTP_ShortCodeRejectedWithoutLookup(t *testing.T) {
	t.Parallel()

	otpStore := NewMockOTPStore()
	svc := newTripService(NewMockTripRepository(), NewMockDriverRepository(), otpStore, NewMockTripPusher())

	if _, err := svc.VerifyOTP(context.Background(), "trip-1", "123"); !errors.Is(err, service.ErrOTPTooShort) {
		t.Fatalf("expected ErrOTPTooShort, got %v", err)
	}
	if otpStore.GetCallCount != 0 {
		t.Error("expected no store lookup for short code")
	}
}

func TestVerifyOTP_WrongStateRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	otpStore := NewMockOTPStore()
	svc := newTripService(tripRepo, NewMockDriverRepository(), otpStore, NewMockTripPusher())

	// Driver has not arrived yet; the code may be correct but the
	// transition is not legal.
	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusAccepted})
	_ = otpStore.SetOTP(context.Background(), "trip-1", "4321")

	if _, err := svc.VerifyOTP(context.Background(), "trip-1", "4321"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// ──────────────────────────────────────────────
// CANCELLATION AND EXPIRY
// ──────────────────────────────────────────────

func TestCancel_ByPatientOverridesInProgressTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	otpStore := NewMockOTPStore()
	pusher := NewMockTripPusher()
	svc := newTripService(tripRepo, driverRepo, otpStore, pusher)

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnTrip})
	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: domain.TripStatusInProgress})
	_ = otpStore.SetOTP(context.Background(), "trip-1", "4321")

	trip, err := svc.Cancel(context.Background(), "trip-1", "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCancelledByPatient {
		t.Errorf("expected cancelled_by_patient, got %s", trip.Status)
	}
	if trip.CancelledAt.IsZero() {
		t.Error("expected cancelled_at to be stamped")
	}

	// Cancellation is pushed so the agent clears its local trip.
	if last := pusher.LastPush(); last == nil || last.Status != domain.TripStatusCancelledByPatient {
		t.Error("expected cancellation push")
	}
	if otpStore.StoredOTP("trip-1") != "" {
		t.Error("expected otp deleted after cancellation")
	}
	if got := driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnDuty {
		t.Errorf("expected driver released, got %s", got)
	}
}

func TestCancel_InvalidPartyRejected(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockTripRepository(), NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())

	if _, err := svc.Cancel(context.Background(), "trip-1", "dispatcher"); !errors.Is(err, service.ErrInvalidCancelParty) {
		t.Fatalf("expected ErrInvalidCancelParty, got %v", err)
	}
}

func TestExpire_OnlyBeforeArrival(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status  domain.TripStatus
		allowed bool
	}{
		{domain.TripStatusSearching, true},
		{domain.TripStatusAccepted, true},
		{domain.TripStatusArrived, false},
		{domain.TripStatusInProgress, false},
	}

	for _, tc := range cases {
		tripRepo := NewMockTripRepository()
		svc := newTripService(tripRepo, NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())
		tripRepo.AddTrip(&domain.Trip{ID: "trip-1", DriverID: "driver-1", Status: tc.status, RequestedAt: time.Now().Add(-10 * time.Minute)})

		_, err := svc.Expire(context.Background(), "trip-1")
		if tc.allowed && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.status, err)
		}
		if !tc.allowed && !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got %v", tc.status, err)
		}
	}
}

// ──────────────────────────────────────────────
// ACTIVE LOOKUP
// ──────────────────────────────────────────────

func TestActiveByDriver_NilWhenNoTrip(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockTripRepository(), NewMockDriverRepository(), NewMockOTPStore(), NewMockTripPusher())

	trip, err := svc.ActiveByDriver(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip != nil {
		t.Errorf("expected nil trip, got %+v", trip)
	}
}
