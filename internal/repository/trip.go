package repository

import (
	"context"

	"nemt/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByTripNumber retrieves a trip by its human-readable trip number.
	GetByTripNumber(ctx context.Context, tripNumber string) (*domain.Trip, error)

	// GetAll retrieves recent trips for an organization.
	GetAll(ctx context.Context, organizationID string) ([]*domain.Trip, error)

	// Update updates an existing trip using compare-and-swap on Version.
	// Returns ErrVersionConflict if the stored version no longer matches and
	// increments trip.Version on success.
	Update(ctx context.Context, trip *domain.Trip) error
}
