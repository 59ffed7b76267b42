package trip

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/tripapi"
)

// fakeAPI is a scripted trip API with call counters.
type fakeAPI struct {
	active *domain.Trip

	fetchErr  error
	otpErr    error
	otpCalls  int32
	arriveErr error
}

func (f *fakeAPI) FetchActive(ctx context.Context, driverID string) (*domain.Trip, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.active.Clone(), nil
}

func (f *fakeAPI) MarkArrived(ctx context.Context, tripID string) (*domain.Trip, error) {
	if f.arriveErr != nil {
		return nil, f.arriveErr
	}
	t := f.active.Clone()
	t.Status = domain.TripStatusArrived
	t.ArrivedAt = time.Now()
	f.active = t
	return t.Clone(), nil
}

func (f *fakeAPI) VerifyOTP(ctx context.Context, tripID, otp string) (*domain.Trip, error) {
	atomic.AddInt32(&f.otpCalls, 1)
	if f.otpErr != nil {
		return nil, f.otpErr
	}
	t := f.active.Clone()
	t.Status = domain.TripStatusInProgress
	t.StartedAt = time.Now()
	f.active = t
	return t.Clone(), nil
}

func (f *fakeAPI) Complete(ctx context.Context, tripID string) (*domain.Trip, error) {
	t := f.active.Clone()
	t.Status = domain.TripStatusCompleted
	t.CompletedAt = time.Now()
	f.active = t
	return t.Clone(), nil
}

func acceptedTrip() *domain.Trip {
	return &domain.Trip{
		ID:          "t1",
		DriverID:    "d1",
		AmbulanceID: "a1",
		Status:      domain.TripStatusAccepted,
		Pickup:      domain.Coordinate{Lat: 12.9730, Lng: 77.5950},
		Drop:        domain.Coordinate{Lat: 12.9900, Lng: 77.6100},
		RequestedAt: time.Now(),
	}
}

func newTestEngine(api API) *Engine {
	return NewEngine(api, "d1", zerolog.Nop())
}

func nearSample() domain.PositionSample {
	// ~158 m from the pickup above.
	return domain.PositionSample{Coord: domain.Coordinate{Lat: 12.9716, Lng: 77.5946}, CapturedAt: time.Now()}
}

func committedGesture() *ArrivalGesture {
	g := NewArrivalGesture(0.9)
	g.Arm()
	g.Update(1.0)
	return g
}

func TestRefreshNoActiveTripClearsState(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)

	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if e.Active() == nil {
		t.Fatal("expected active trip")
	}

	api.active = nil
	got, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("empty refresh must not error: %v", err)
	}
	if got != nil || e.Active() != nil {
		t.Fatal("expected cleared local state")
	}
}

func TestConfirmArrivalRequiresProximity(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)
	e.Refresh(context.Background())

	// 5 km away: not near.
	e.OnPosition(domain.PositionSample{Coord: domain.Coordinate{Lat: 13.0180, Lng: 77.5950}})

	err := e.ConfirmArrival(context.Background(), committedGesture())
	if !errors.Is(err, ErrNotNearPickup) {
		t.Fatalf("expected ErrNotNearPickup, got %v", err)
	}
	if e.Active().Status != domain.TripStatusAccepted {
		t.Fatal("trip must be unchanged")
	}
}

func TestConfirmArrivalRequiresCommittedGesture(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)
	e.Refresh(context.Background())
	e.OnPosition(nearSample())

	// Released before full displacement: rollback, no transition.
	g := NewArrivalGesture(0.9)
	g.Arm()
	g.Update(0.5)
	g.Release()

	if err := e.ConfirmArrival(context.Background(), g); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}

	if err := e.ConfirmArrival(context.Background(), committedGesture()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if e.Active().Status != domain.TripStatusArrived {
		t.Fatalf("status: %s", e.Active().Status)
	}
}

func TestSubmitOTPTooShortNeverCallsNetwork(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	api.active.Status = domain.TripStatusArrived
	e := newTestEngine(api)
	e.Refresh(context.Background())

	if err := e.SubmitOTP(context.Background(), "12"); !errors.Is(err, ErrOTPTooShort) {
		t.Fatalf("expected ErrOTPTooShort, got %v", err)
	}
	if err := e.SubmitOTP(context.Background(), "12ab"); !errors.Is(err, ErrOTPNotNumeric) {
		t.Fatalf("expected ErrOTPNotNumeric, got %v", err)
	}
	if atomic.LoadInt32(&api.otpCalls) != 0 {
		t.Fatal("short otp must be rejected before any network call")
	}

	if err := e.SubmitOTP(context.Background(), "1234"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if atomic.LoadInt32(&api.otpCalls) != 1 {
		t.Fatal("expected exactly one verification call")
	}
	if e.Active().Status != domain.TripStatusInProgress {
		t.Fatalf("status: %s", e.Active().Status)
	}
}

func TestSubmitOTPRejectionIsRecoverable(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	api.active.Status = domain.TripStatusArrived
	e := newTestEngine(api)
	e.Refresh(context.Background())

	api.otpErr = tripapi.ErrOTPRejected
	if err := e.SubmitOTP(context.Background(), "9999"); !errors.Is(err, tripapi.ErrOTPRejected) {
		t.Fatalf("expected ErrOTPRejected, got %v", err)
	}
	if e.Active().Status != domain.TripStatusArrived {
		t.Fatal("trip must stay in arrived after a failed verification")
	}

	// Retry with the right code: no local retry limit.
	api.otpErr = nil
	if err := e.SubmitOTP(context.Background(), "1234"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.Active().Status != domain.TripStatusInProgress {
		t.Fatalf("status: %s", e.Active().Status)
	}
}

func TestOTPGateInProgressNeverReachedWithoutVerification(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)
	e.Refresh(context.Background())

	// From accepted, OTP submission is a wrong-state error.
	if err := e.SubmitOTP(context.Background(), "1234"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected ErrWrongState, got %v", err)
	}
	if e.Active().Status == domain.TripStatusInProgress {
		t.Fatal("in_progress reached without otp verification")
	}
}

func TestCompleteRequiresConfirmationDialog(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	api.active.Status = domain.TripStatusInProgress
	e := newTestEngine(api)
	e.Refresh(context.Background())

	if err := e.CompleteTrip(context.Background(), false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if err := e.CompleteTrip(context.Background(), true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Terminal state clears the trip from local memory.
	if e.Active() != nil {
		t.Fatal("completed trip must be cleared")
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	terminals := []domain.TripStatus{
		domain.TripStatusCompleted,
		domain.TripStatusCancelledByDriver,
		domain.TripStatusCancelledByPatient,
		domain.TripStatusExpired,
	}

	for _, status := range terminals {
		api := &fakeAPI{active: acceptedTrip()}
		e := newTestEngine(api)
		e.Refresh(context.Background())

		pushed := acceptedTrip()
		pushed.Status = status
		e.ApplyServerPush(pushed)

		if e.Active() != nil {
			t.Fatalf("%s: terminal trip must be cleared", status)
		}
		if err := e.ConfirmArrival(context.Background(), committedGesture()); !errors.Is(err, ErrNoActiveTrip) {
			t.Errorf("%s: arrival should fail, got %v", status, err)
		}
		if err := e.SubmitOTP(context.Background(), "1234"); !errors.Is(err, ErrNoActiveTrip) {
			t.Errorf("%s: otp should fail, got %v", status, err)
		}
		if err := e.CompleteTrip(context.Background(), true); !errors.Is(err, ErrNoActiveTrip) {
			t.Errorf("%s: complete should fail, got %v", status, err)
		}
	}
}

func TestServerPushOverridesLocalState(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)
	e.Refresh(context.Background())
	e.OnPosition(nearSample())

	// Patient cancels while the driver is mid-flow: the push wins.
	cancelled := acceptedTrip()
	cancelled.Status = domain.TripStatusCancelledByPatient
	cancelled.CancelledAt = time.Now()
	e.ApplyServerPush(cancelled)

	if e.Active() != nil {
		t.Fatal("cancellation push must clear the trip")
	}
}

func TestSnapshotReflectsEngineState(t *testing.T) {
	api := &fakeAPI{active: acceptedTrip()}
	e := newTestEngine(api)
	e.Refresh(context.Background())
	e.OnPosition(nearSample())
	e.SetAddresses("Victoria Hospital", "Indiranagar")
	e.SetRoute(&domain.RouteInfo{
		Points:       []domain.Coordinate{{Lat: 12.97, Lng: 77.59}},
		DistanceText: "1.2 km",
		DurationText: "4 mins",
	})

	s := e.Snapshot()
	if s.Status != "accepted" || !s.NearPickup {
		t.Fatalf("snapshot: %+v", s)
	}
	if s.PickupAddress != "Victoria Hospital" || s.DistanceText != "1.2 km" {
		t.Fatalf("snapshot annotations: %+v", s)
	}

	api.active = nil
	e.Refresh(context.Background())
	if got := e.Snapshot(); got.Status != "none" || len(got.RoutePoints) != 0 {
		t.Fatalf("cleared snapshot: %+v", got)
	}
}
