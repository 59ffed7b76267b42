package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ambulanceLocationKey = "ambulances:locations"

// AmbulanceLocation represents an ambulance's live position.
type AmbulanceLocation struct {
	AmbulanceID string
	Lat         float64
	Lng         float64
	DistanceKm  float64
}

// LocationStore handles live ambulance positions in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores an ambulance's position using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, ambulanceID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, ambulanceLocationKey, &redis.GeoLocation{
		Name:      ambulanceID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearby returns ambulances within the given radius (in kilometers),
// closest first.
func (s *LocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]AmbulanceLocation, error) {
	results, err := s.client.GeoRadius(ctx, ambulanceLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]AmbulanceLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, AmbulanceLocation{
			AmbulanceID: r.Name,
			Lat:         r.Latitude,
			Lng:         r.Longitude,
			DistanceKm:  r.Dist,
		})
	}

	return locations, nil
}

// RemoveLocation removes an ambulance from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, ambulanceID string) error {
	return s.client.ZRem(ctx, ambulanceLocationKey, ambulanceID).Err()
}
