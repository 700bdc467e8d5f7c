package postgres

import (
	"context"
	"database/sql"
	"errors"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, organization_id, name, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.OrganizationID, driver.Name, driver.Phone, driver.Status, driver.CreatedAt,
	)

	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT id, organization_id, name, phone, status, created_at
		FROM drivers WHERE id = $1
	`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID, &driver.OrganizationID, &driver.Name, &driver.Phone, &driver.Status, &driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// GetAll retrieves all drivers for an organization.
func (r *DriverRepository) GetAll(ctx context.Context, organizationID string) ([]*domain.Driver, error) {
	query := `
		SELECT id, organization_id, name, phone, status, created_at
		FROM drivers WHERE organization_id = $1 ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID, &driver.OrganizationID, &driver.Name, &driver.Phone, &driver.Status, &driver.CreatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}

	return drivers, rows.Err()
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
