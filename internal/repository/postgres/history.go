package postgres

import (
	"context"
	"database/sql"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// ChangeHistoryRepository is a PostgreSQL implementation of
// repository.ChangeHistoryRepository.
type ChangeHistoryRepository struct {
	q Querier
}

// NewChangeHistoryRepository creates a new PostgreSQL history repository.
func NewChangeHistoryRepository(db *sql.DB) *ChangeHistoryRepository {
	return &ChangeHistoryRepository{q: db}
}

// NewChangeHistoryRepositoryWithTx creates a history repository using a transaction.
func NewChangeHistoryRepositoryWithTx(tx *sql.Tx) *ChangeHistoryRepository {
	return &ChangeHistoryRepository{q: tx}
}

// Create appends a new history record.
func (r *ChangeHistoryRepository) Create(ctx context.Context, record *domain.ChangeHistory) error {
	query := `
		INSERT INTO trip_change_history
			(id, trip_id, change_type, field_name, old_value, new_value, actor_id, actor_name, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		record.ID, record.TripID, record.ChangeType,
		record.FieldName, record.OldValue, record.NewValue,
		record.ActorID, record.ActorName, record.Description, record.CreatedAt,
	)

	return err
}

// ListByTripID retrieves a trip's history in insertion order.
func (r *ChangeHistoryRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.ChangeHistory, error) {
	query := `
		SELECT id, trip_id, change_type, field_name, old_value, new_value, actor_id, actor_name, description, created_at
		FROM trip_change_history
		WHERE trip_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ChangeHistory
	for rows.Next() {
		var record domain.ChangeHistory
		if err := rows.Scan(
			&record.ID, &record.TripID, &record.ChangeType,
			&record.FieldName, &record.OldValue, &record.NewValue,
			&record.ActorID, &record.ActorName, &record.Description, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Ensure ChangeHistoryRepository implements repository.ChangeHistoryRepository.
var _ repository.ChangeHistoryRepository = (*ChangeHistoryRepository)(nil)
