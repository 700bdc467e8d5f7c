package repository

import "context"

// TripSequence allocates monotonic trip-number sequence values. The store
// must hand out values atomically so concurrent callers never collide.
type TripSequence interface {
	Next(ctx context.Context) (int64, error)
}
