package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore caches read-mostly rate configuration in Redis. Entries are
// invalidated on rate-table edits so assignments never price against a stale
// table for longer than one request.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// RateCacheTTL bounds staleness if an invalidation is ever missed.
const RateCacheTTL = 5 * time.Minute

const driverRatePrefix = "cache:rates:driver:"

// CachedRateTier is the cache representation of one mileage tier.
type CachedRateTier struct {
	ServiceLevel string  `json:"service_level"`
	FromMiles    float64 `json:"from_miles"`
	ToMiles      float64 `json:"to_miles"`
	BaseAmount   float64 `json:"base_amount"`
	PerMileRate  float64 `json:"per_mile_rate"`
}

// CachedRateTable is the cache representation of a driver's rate table.
type CachedRateTable struct {
	DriverID string           `json:"driver_id"`
	Tiers    []CachedRateTier `json:"tiers"`
}

// GetDriverRateTable retrieves a cached rate table. Returns nil on cache miss.
func (s *CacheStore) GetDriverRateTable(ctx context.Context, driverID string) (*CachedRateTable, error) {
	data, err := s.client.Get(ctx, driverRatePrefix+driverID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var table CachedRateTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// SetDriverRateTable stores a rate table in cache.
func (s *CacheStore) SetDriverRateTable(ctx context.Context, table *CachedRateTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, driverRatePrefix+table.DriverID, data, RateCacheTTL).Err()
}

// InvalidateDriverRateTable removes a driver's cached rate table.
func (s *CacheStore) InvalidateDriverRateTable(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverRatePrefix+driverID).Err()
}
