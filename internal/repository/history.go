package repository

import (
	"context"

	"nemt/internal/domain"
)

// ChangeHistoryRepository defines the persistence operations for the
// append-only trip audit trail. There is deliberately no update or delete.
type ChangeHistoryRepository interface {
	// Create appends a new history record.
	Create(ctx context.Context, record *domain.ChangeHistory) error

	// ListByTripID retrieves a trip's history in insertion order.
	ListByTripID(ctx context.Context, tripID string) ([]*domain.ChangeHistory, error)
}
