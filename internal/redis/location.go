package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const driverLocationKey = "drivers:locations"

// LocationStore keeps each driver's latest GPS ping in a Redis geo index,
// serving the tracking-link surface.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's position using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// GetLocation returns a driver's last known position. ok is false when the
// driver has never pinged.
func (s *LocationStore) GetLocation(ctx context.Context, driverID string) (lat, lng float64, ok bool, err error) {
	positions, err := s.client.GeoPos(ctx, driverLocationKey, driverID).Result()
	if err != nil {
		return 0, 0, false, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return 0, 0, false, nil
	}
	return positions[0].Latitude, positions[0].Longitude, true, nil
}

// RemoveLocation removes a driver's position from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverLocationKey, driverID).Err()
}
