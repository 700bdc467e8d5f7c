package repository

import (
	"context"

	"nemt/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetAll retrieves all drivers for an organization.
	GetAll(ctx context.Context, organizationID string) ([]*domain.Driver, error)
}
