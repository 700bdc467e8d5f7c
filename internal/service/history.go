package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// HistoryRecorder appends ChangeHistory records on a fire-and-forget basis: a
// failed write is logged and swallowed so it never fails the business
// operation it accompanies. Status-change records bypass the recorder and are
// written inside the trip's transaction instead.
type HistoryRecorder struct {
	historyRepo repository.ChangeHistoryRepository
}

// NewHistoryRecorder creates a new HistoryRecorder.
func NewHistoryRecorder(historyRepo repository.ChangeHistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{historyRepo: historyRepo}
}

// Record appends one history record, filling in ID and timestamp.
func (r *HistoryRecorder) Record(ctx context.Context, record *domain.ChangeHistory) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := r.historyRepo.Create(ctx, record); err != nil {
		log.Printf("history write failed: trip=%s type=%s: %v", record.TripID, record.ChangeType, err)
	}
}

// RecordFieldChanges appends one FIELD_UPDATED record per changed field, in
// insertion order.
func (r *HistoryRecorder) RecordFieldChanges(ctx context.Context, tripID string, actor Actor, changes []FieldChange) {
	for _, change := range changes {
		r.Record(ctx, &domain.ChangeHistory{
			TripID:      tripID,
			ChangeType:  domain.ChangeTypeFieldUpdated,
			FieldName:   change.Field,
			OldValue:    change.OldValue,
			NewValue:    change.NewValue,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			Description: fmt.Sprintf("%s changed from %q to %q", change.Field, change.OldValue, change.NewValue),
		})
	}
}

// ListByTripID returns a trip's audit trail in insertion order.
func (r *HistoryRecorder) ListByTripID(ctx context.Context, tripID string) ([]*domain.ChangeHistory, error) {
	return r.historyRepo.ListByTripID(ctx, tripID)
}

// NewStatusChangeRecord builds the STATUS_CHANGED record that must be
// persisted in the same transaction as the trip write.
func NewStatusChangeRecord(tripID string, old, new domain.TripStatus, actor Actor) *domain.ChangeHistory {
	return &domain.ChangeHistory{
		ID:          uuid.New().String(),
		TripID:      tripID,
		ChangeType:  domain.ChangeTypeStatusChanged,
		FieldName:   "status",
		OldValue:    string(old),
		NewValue:    string(new),
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Description: fmt.Sprintf("status changed from %s to %s", old, new),
		CreatedAt:   time.Now(),
	}
}
