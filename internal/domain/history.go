package domain

import "time"

// ChangeType classifies a ChangeHistory record.
type ChangeType string

const (
	ChangeTypeCreated          ChangeType = "CREATED"
	ChangeTypeStatusChanged    ChangeType = "STATUS_CHANGED"
	ChangeTypeFieldUpdated     ChangeType = "FIELD_UPDATED"
	ChangeTypeDriverAssigned   ChangeType = "DRIVER_ASSIGNED"
	ChangeTypeDriverReassigned ChangeType = "DRIVER_REASSIGNED"
)

// ChangeHistory is one append-only audit record for a trip. Records are
// created once and never mutated or deleted.
type ChangeHistory struct {
	ID          string
	TripID      string
	ChangeType  ChangeType
	FieldName   string
	OldValue    string
	NewValue    string
	ActorID     string
	ActorName   string
	Description string
	CreatedAt   time.Time
}
