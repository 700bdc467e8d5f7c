package postgres

import (
	"context"
	"database/sql"

	"nemt/internal/repository"
)

// Store opens transactions over the trip tables so a trip write and its
// status-change history record commit or roll back together.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn against transaction-scoped trip and history repositories and
// commits if fn returns nil, rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(trips repository.TripRepository, history repository.ChangeHistoryRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(NewTripRepositoryWithTx(tx), NewChangeHistoryRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
