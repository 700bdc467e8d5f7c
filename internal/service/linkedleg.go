package service

import (
	"context"
	"log"
	"time"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// LinkedLegSyncService mirrors a defined subset of outbound-leg updates onto
// the paired return leg. The mirror write is best-effort: a failure here is
// logged and never propagated, because the outbound update has already
// committed.
type LinkedLegSyncService struct {
	tripRepo repository.TripRepository
	history  *HistoryRecorder
}

// NewLinkedLegSyncService creates a new LinkedLegSyncService.
func NewLinkedLegSyncService(tripRepo repository.TripRepository, history *HistoryRecorder) *LinkedLegSyncService {
	return &LinkedLegSyncService{tripRepo: tripRepo, history: history}
}

// BuildReturnLegPatch filters patch down to the fields that propagate from an
// outbound leg to its return leg: passenger contact, driver and vehicle
// assignment, scheduled pickup time, and appointment time. The appointment
// time is withheld when the return leg is will-call. Fare, distance, status,
// notes, and trip number never propagate.
func BuildReturnLegPatch(patch TripPatch, returnTrip *domain.Trip) TripPatch {
	mirrored := TripPatch{
		PassengerName:     patch.PassengerName,
		PassengerPhone:    patch.PassengerPhone,
		PassengerEmail:    patch.PassengerEmail,
		DriverID:          patch.DriverID,
		VehicleID:         patch.VehicleID,
		ScheduledPickupAt: patch.ScheduledPickupAt,
	}

	if !returnTrip.WillCall {
		mirrored.AppointmentAt = patch.AppointmentAt
	}

	return mirrored
}

// SyncReturnLeg applies the propagated subset of patch to the return leg of
// outbound, when one exists. Returns the number of fields applied; zero when
// the trip has no return leg or nothing propagated.
func (s *LinkedLegSyncService) SyncReturnLeg(ctx context.Context, outbound *domain.Trip, patch TripPatch, actor Actor) int {
	if !IsOutboundLeg(outbound.TripNumber) {
		return 0
	}

	returnNumber, ok := ReturnNumberFor(outbound.TripNumber)
	if !ok {
		return 0
	}

	returnTrip, err := s.tripRepo.GetByTripNumber(ctx, returnNumber)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("linked-leg lookup failed: outbound=%s: %v", outbound.TripNumber, err)
		}
		return 0
	}

	mirrored := BuildReturnLegPatch(patch, returnTrip)
	changes := mirrored.Apply(returnTrip)
	if len(changes) == 0 {
		return 0
	}

	returnTrip.LastModifiedByID = actor.ID
	returnTrip.LastModifiedByName = actor.Name
	returnTrip.UpdatedAt = time.Now()

	if err := s.tripRepo.Update(ctx, returnTrip); err != nil {
		log.Printf("linked-leg update failed: return=%s: %v", returnTrip.TripNumber, err)
		return 0
	}

	if s.history != nil {
		s.history.RecordFieldChanges(ctx, returnTrip.ID, actor, changes)
	}

	return len(changes)
}
