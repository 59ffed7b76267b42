package trip

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/geo"
)

// minOTPDigits is the shortest code accepted before any network call.
const minOTPDigits = 4

// API is the slice of the dispatch server's trip endpoints the engine
// consumes.
type API interface {
	FetchActive(ctx context.Context, driverID string) (*domain.Trip, error)
	MarkArrived(ctx context.Context, tripID string) (*domain.Trip, error)
	VerifyOTP(ctx context.Context, tripID, otp string) (*domain.Trip, error)
	Complete(ctx context.Context, tripID string) (*domain.Trip, error)
}

// Engine owns the authoritative local lifecycle of the driver's single
// active trip. Local transitions are provisional: every call adopts the
// state the server returns, and a server push overrides local state
// unconditionally.
type Engine struct {
	api      API
	driverID string
	log      zerolog.Logger

	mu         sync.Mutex
	trip       *domain.Trip
	evaluator  geo.Evaluator
	distanceKm float64
	near       bool
	route      *domain.RouteInfo
	pickupAddr string
	dropAddr   string
}

// NewEngine creates an Engine for the given driver.
func NewEngine(api API, driverID string, log zerolog.Logger) *Engine {
	return &Engine{
		api:      api,
		driverID: driverID,
		log:      log.With().Str("component", "trip-engine").Logger(),
	}
}

// Refresh fetches the active trip from the server. A "no active trip"
// result is not an error: it clears local state and returns nil.
func (e *Engine) Refresh(ctx context.Context) (*domain.Trip, error) {
	t, err := e.api.FetchActive(ctx, e.driverID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.adoptLocked(t)
	return e.trip.Clone(), nil
}

// Active returns a snapshot of the current trip, or nil.
func (e *Engine) Active() *domain.Trip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trip.Clone()
}

// OnPosition feeds a throttled position sample into the proximity
// classification for the current trip's pickup.
func (e *Engine) OnPosition(s domain.PositionSample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trip == nil {
		return
	}
	e.distanceKm = e.evaluator.DistanceKm(s.Coord)
	e.near = e.evaluator.Near(s.Coord)
}

// NearPickup reports whether the latest sample was within the arrival
// threshold. No hysteresis: it reverts as soon as a sample falls outside.
func (e *Engine) NearPickup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.near
}

// DistanceToPickupKm returns the latest classified distance.
func (e *Engine) DistanceToPickupKm() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distanceKm
}

// ConfirmArrival performs the accepted→arrived transition. It requires
// proximity within the arrival threshold and a committed confirmation
// gesture; either missing leaves the trip untouched.
func (e *Engine) ConfirmArrival(ctx context.Context, gesture *ArrivalGesture) error {
	e.mu.Lock()
	if e.trip == nil {
		e.mu.Unlock()
		return ErrNoActiveTrip
	}
	if e.trip.Status != domain.TripStatusAccepted {
		e.mu.Unlock()
		return ErrWrongState
	}
	if !e.near {
		e.mu.Unlock()
		return ErrNotNearPickup
	}
	if gesture == nil || !gesture.Committed() {
		e.mu.Unlock()
		return ErrNotConfirmed
	}
	tripID := e.trip.ID
	e.mu.Unlock()

	t, err := e.api.MarkArrived(ctx, tripID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.adoptLocked(t)
	e.mu.Unlock()

	gesture.Reset()
	e.log.Info().Str("trip_id", tripID).Msg("arrival confirmed")
	return nil
}

// SubmitOTP verifies the patient's code with the server. Codes shorter
// than 4 digits or containing non-digits are rejected before any network
// call. A server rejection is recoverable: the trip stays in arrived and
// there is no local retry limit.
func (e *Engine) SubmitOTP(ctx context.Context, otp string) error {
	if len(otp) < minOTPDigits {
		return ErrOTPTooShort
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return ErrOTPNotNumeric
		}
	}

	e.mu.Lock()
	if e.trip == nil {
		e.mu.Unlock()
		return ErrNoActiveTrip
	}
	if e.trip.Status != domain.TripStatusArrived {
		e.mu.Unlock()
		return ErrWrongState
	}
	tripID := e.trip.ID
	e.mu.Unlock()

	t, err := e.api.VerifyOTP(ctx, tripID, otp)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.adoptLocked(t)
	e.mu.Unlock()

	e.log.Info().Str("trip_id", tripID).Msg("otp verified, trip in progress")
	return nil
}

// CompleteTrip performs the in_progress→completed transition. The
// confirmed flag carries the driver's answer to the confirmation dialog.
func (e *Engine) CompleteTrip(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	e.mu.Lock()
	if e.trip == nil {
		e.mu.Unlock()
		return ErrNoActiveTrip
	}
	if e.trip.Status != domain.TripStatusInProgress {
		e.mu.Unlock()
		return ErrWrongState
	}
	tripID := e.trip.ID
	e.mu.Unlock()

	t, err := e.api.Complete(ctx, tripID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.adoptLocked(t)
	e.mu.Unlock()

	e.log.Info().Str("trip_id", tripID).Msg("trip completed")
	return nil
}

// ApplyServerPush adopts a server-pushed trip state unconditionally,
// overriding any in-flight local transition. The server always wins.
func (e *Engine) ApplyServerPush(t *domain.Trip) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t != nil {
		e.log.Info().Str("trip_id", t.ID).Str("status", string(t.Status)).Msg("server push applied")
	}
	e.adoptLocked(t)
}

// SetRoute records the latest resolved route for the snapshot.
func (e *Engine) SetRoute(r *domain.RouteInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.route = r
}

// SetAddresses records the resolved pickup and drop address labels.
func (e *Engine) SetAddresses(pickup, drop string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pickupAddr = pickup
	e.dropAddr = drop
}

// adoptLocked replaces local trip state with the server's view. Terminal
// states clear the trip from local memory. Callers hold e.mu.
func (e *Engine) adoptLocked(t *domain.Trip) {
	if t == nil || t.Status.Terminal() {
		if e.trip != nil && t != nil {
			e.log.Info().Str("trip_id", t.ID).Str("status", string(t.Status)).Msg("trip reached terminal state, clearing")
		}
		e.trip = nil
		e.route = nil
		e.near = false
		e.distanceKm = 0
		e.pickupAddr = ""
		e.dropAddr = ""
		return
	}

	if e.trip == nil || e.trip.ID != t.ID {
		e.evaluator = geo.NewEvaluator(t.Pickup)
		e.near = false
		e.distanceKm = 0
	}
	e.trip = t.Clone()
}

// Snapshot is the plain immutable view handed to the UI layer.
type Snapshot struct {
	TripID             string              `json:"trip_id,omitempty"`
	Status             string              `json:"status"`
	DistanceToPickupKm float64             `json:"distance_to_pickup_km"`
	NearPickup         bool                `json:"near_pickup"`
	PickupAddress      string              `json:"pickup_address,omitempty"`
	DropAddress        string              `json:"drop_address,omitempty"`
	RoutePoints        []domain.Coordinate `json:"route_points,omitempty"`
	DistanceText       string              `json:"distance_text,omitempty"`
	DurationText       string              `json:"duration_text,omitempty"`
}

// Snapshot returns the current UI-facing view. When no trip is active
// the status is "none".
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.trip == nil {
		return Snapshot{Status: "none"}
	}

	s := Snapshot{
		TripID:             e.trip.ID,
		Status:             string(e.trip.Status),
		DistanceToPickupKm: e.distanceKm,
		NearPickup:         e.near,
		PickupAddress:      e.pickupAddr,
		DropAddress:        e.dropAddr,
	}
	if e.route != nil {
		s.RoutePoints = append([]domain.Coordinate(nil), e.route.Points...)
		s.DistanceText = e.route.DistanceText
		s.DurationText = e.route.DurationText
	}
	return s
}
