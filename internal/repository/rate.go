package repository

import (
	"context"

	"nemt/internal/domain"
)

// RateRepository defines the persistence operations for rate tables.
type RateRepository interface {
	// GetDriverRateTable retrieves the mileage tiers for a driver.
	// Returns nil (not an error) when the driver has no rate configuration.
	GetDriverRateTable(ctx context.Context, driverID string) (*domain.DriverRateTable, error)

	// ReplaceDriverRateTable replaces all tiers for a driver atomically.
	ReplaceDriverRateTable(ctx context.Context, table *domain.DriverRateTable) error

	// GetFacilityRates retrieves the flat per-service-level rates for a
	// facility or clinic. Returns an empty slice when none are configured.
	GetFacilityRates(ctx context.Context, facilityID string) ([]domain.FacilityRate, error)

	// ReplaceFacilityRates replaces all flat rates for a facility atomically.
	ReplaceFacilityRates(ctx context.Context, facilityID string, rates []domain.FacilityRate) error
}
