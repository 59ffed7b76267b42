package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles trip caching in Redis. The agent polls the active
// trip on a short cadence; the cache keeps those reads off Postgres.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// ActiveTripCacheTTL is short because trip status changes at every
// lifecycle transition.
const ActiveTripCacheTTL = 10 * time.Second

const activeTripCachePrefix = "cache:trip:active:"

// CachedTrip represents a cached active trip.
type CachedTrip struct {
	ID          string  `json:"id"`
	DriverID    string  `json:"driver_id"`
	AmbulanceID string  `json:"ambulance_id"`
	Status      string  `json:"status"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DropLat     float64 `json:"drop_lat"`
	DropLng     float64 `json:"drop_lng"`
}

// GetActiveTrip retrieves a driver's cached active trip. A cache miss
// returns nil, nil.
func (s *CacheStore) GetActiveTrip(ctx context.Context, driverID string) (*CachedTrip, error) {
	data, err := s.client.Get(ctx, activeTripCachePrefix+driverID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip CachedTrip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetActiveTrip caches a driver's active trip.
func (s *CacheStore) SetActiveTrip(ctx context.Context, driverID string, trip *CachedTrip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, activeTripCachePrefix+driverID, data, ActiveTripCacheTTL).Err()
}

// InvalidateActiveTrip drops the cached trip after any transition.
func (s *CacheStore) InvalidateActiveTrip(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, activeTripCachePrefix+driverID).Err()
}
