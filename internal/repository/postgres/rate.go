package postgres

import (
	"context"
	"database/sql"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// RateRepository is a PostgreSQL implementation of repository.RateRepository.
type RateRepository struct {
	db *sql.DB
}

// NewRateRepository creates a new PostgreSQL rate repository.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// GetDriverRateTable retrieves the mileage tiers for a driver. Returns nil
// when the driver has no rate configuration.
func (r *RateRepository) GetDriverRateTable(ctx context.Context, driverID string) (*domain.DriverRateTable, error) {
	query := `
		SELECT service_level, from_miles, to_miles, base_amount, per_mile_rate
		FROM driver_rate_tiers
		WHERE driver_id = $1
		ORDER BY service_level, from_miles
	`

	rows, err := r.db.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.RateTier
	for rows.Next() {
		var tier domain.RateTier
		if err := rows.Scan(&tier.ServiceLevel, &tier.FromMiles, &tier.ToMiles, &tier.BaseAmount, &tier.PerMileRate); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tiers) == 0 {
		return nil, nil
	}

	return &domain.DriverRateTable{DriverID: driverID, Tiers: tiers}, nil
}

// ReplaceDriverRateTable replaces all tiers for a driver atomically.
func (r *RateRepository) ReplaceDriverRateTable(ctx context.Context, table *domain.DriverRateTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM driver_rate_tiers WHERE driver_id = $1`, table.DriverID); err != nil {
		_ = tx.Rollback()
		return err
	}

	insert := `
		INSERT INTO driver_rate_tiers (driver_id, service_level, from_miles, to_miles, base_amount, per_mile_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, tier := range table.Tiers {
		if _, err := tx.ExecContext(ctx, insert,
			table.DriverID, tier.ServiceLevel, tier.FromMiles, tier.ToMiles, tier.BaseAmount, tier.PerMileRate,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetFacilityRates retrieves the flat per-service-level rates for a facility.
func (r *RateRepository) GetFacilityRates(ctx context.Context, facilityID string) ([]domain.FacilityRate, error) {
	query := `
		SELECT id, facility_id, service_level, amount
		FROM facility_rates WHERE facility_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.FacilityRate
	for rows.Next() {
		var rate domain.FacilityRate
		if err := rows.Scan(&rate.ID, &rate.FacilityID, &rate.ServiceLevel, &rate.Amount); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}

	return rates, rows.Err()
}

// ReplaceFacilityRates replaces all flat rates for a facility atomically.
func (r *RateRepository) ReplaceFacilityRates(ctx context.Context, facilityID string, rates []domain.FacilityRate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM facility_rates WHERE facility_id = $1`, facilityID); err != nil {
		_ = tx.Rollback()
		return err
	}

	insert := `
		INSERT INTO facility_rates (id, facility_id, service_level, amount)
		VALUES ($1, $2, $3, $4)
	`
	for _, rate := range rates {
		if _, err := tx.ExecContext(ctx, insert, rate.ID, facilityID, rate.ServiceLevel, rate.Amount); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Ensure RateRepository implements repository.RateRepository.
var _ repository.RateRepository = (*RateRepository)(nil)
