package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const trackingTokenPrefix = "tracking:token:"

// TrackingStore maps tracking tokens to trip IDs with a TTL.
type TrackingStore struct {
	client *redis.Client
}

// NewTrackingStore creates a new TrackingStore.
func NewTrackingStore(client *redis.Client) *TrackingStore {
	return &TrackingStore{client: client}
}

// SaveToken stores a token -> trip mapping that expires after ttl.
func (s *TrackingStore) SaveToken(ctx context.Context, token, tripID string, ttl time.Duration) error {
	return s.client.Set(ctx, trackingTokenPrefix+token, tripID, ttl).Err()
}

// LookupToken resolves a token to its trip ID. Returns "" when the token is
// unknown or expired.
func (s *TrackingStore) LookupToken(ctx context.Context, token string) (string, error) {
	tripID, err := s.client.Get(ctx, trackingTokenPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return tripID, nil
}
