package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for driver location pings.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	GetLocation(ctx context.Context, driverID string) (lat, lng float64, ok bool, err error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for per-trip assignment locks.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
