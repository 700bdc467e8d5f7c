package postgres

import (
	"context"
	"database/sql"

	"nemt/internal/repository"
)

// TripSequence allocates trip numbers from a PostgreSQL sequence, so values
// are monotonic and collision-free under concurrent callers.
type TripSequence struct {
	db *sql.DB
}

// NewTripSequence creates a new TripSequence.
func NewTripSequence(db *sql.DB) *TripSequence {
	return &TripSequence{db: db}
}

// Next returns the next trip-number sequence value.
func (s *TripSequence) Next(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `SELECT nextval('trip_number_seq')`).Scan(&next)
	return next, err
}

// Ensure TripSequence implements repository.TripSequence.
var _ repository.TripSequence = (*TripSequence)(nil)
