package service

import (
	"context"

	"nemt/internal/repository"
)

// TxRunner executes fn against transaction-scoped repositories so a trip
// write and its status-change history record commit or roll back together.
// postgres.Store is the production implementation.
type TxRunner interface {
	InTx(ctx context.Context, fn func(trips repository.TripRepository, history repository.ChangeHistoryRepository) error) error
}
