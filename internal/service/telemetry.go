package service

import (
	"context"

	"github.com/rs/zerolog"

	"ambulance/internal/observability"
	internalredis "ambulance/internal/redis"
	"ambulance/internal/tracking"
)

// PositionPublisher forwards accepted position events to downstream
// consumers (the Kafka ingest topic).
type PositionPublisher interface {
	PublishPosition(event tracking.PositionEvent) error
}

// TelemetryService handles position events arriving on the tracking
// channel: it validates them, updates the live geo index and fans them
// out to the ingest pipeline.
type TelemetryService struct {
	locationStore internalredis.LocationStoreInterface
	publisher     PositionPublisher
	log           zerolog.Logger
}

// NewTelemetryService creates a new TelemetryService.
func NewTelemetryService(
	locationStore internalredis.LocationStoreInterface,
	publisher PositionPublisher,
	log zerolog.Logger,
) *TelemetryService {
	return &TelemetryService{
		locationStore: locationStore,
		publisher:     publisher,
		log:           log.With().Str("component", "telemetry-service").Logger(),
	}
}

// HandlePosition ingests one position event from a driver's channel.
func (s *TelemetryService) HandlePosition(ctx context.Context, event tracking.PositionEvent) error {
	if event.AmbulanceID == "" {
		return ErrInvalidAmbulanceID
	}
	if !event.Coord().Valid() {
		return ErrInvalidLocation
	}

	// Live geo index is the primary real-time store.
	if err := s.locationStore.UpdateLocation(ctx, event.AmbulanceID, event.Latitude, event.Longitude); err != nil {
		return err
	}

	if s.publisher != nil {
		// Ingest is best-effort; a broker hiccup never blocks tracking.
		if err := s.publisher.PublishPosition(event); err != nil {
			s.log.Warn().Err(err).Str("ambulance_id", event.AmbulanceID).Msg("position publish failed")
		}
	}

	observability.PositionsIngested.Inc()
	return nil
}

// Nearby returns ambulances within radiusKm of the given point, closest
// first.
func (s *TelemetryService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]internalredis.AmbulanceLocation, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = 5
	}
	return s.locationStore.FindNearby(ctx, lat, lng, radiusKm)
}

// RemoveAmbulance drops an ambulance from the live geo index when its
// tracking session ends.
func (s *TelemetryService) RemoveAmbulance(ctx context.Context, ambulanceID string) error {
	if ambulanceID == "" {
		return ErrInvalidAmbulanceID
	}
	return s.locationStore.RemoveLocation(ctx, ambulanceID)
}
