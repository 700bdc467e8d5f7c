package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"nemt/internal/domain"
	"nemt/internal/redis"
	"nemt/internal/repository"
)

const assignmentLockTTL = 10 * time.Second

// TrackingIssuer issues a shareable tracking link for a trip. Best-effort.
type TrackingIssuer interface {
	IssueTrackingLink(ctx context.Context, tripID string) (string, error)
}

// AssignmentService assigns and reassigns drivers to trips. The driver payout
// is snapshotted from the rate resolver at assignment time; reassignment
// never regresses a trip that has already progressed past SCHEDULED.
type AssignmentService struct {
	tx                  TxRunner
	tripRepo            repository.TripRepository
	driverRepo          repository.DriverRepository
	rateService         *RateService
	history             *HistoryRecorder
	linkedLegs          *LinkedLegSyncService
	notificationService *NotificationService
	tracking            TrackingIssuer
	lockStore           redis.LockStoreInterface
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	tx TxRunner,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	rateService *RateService,
	history *HistoryRecorder,
	linkedLegs *LinkedLegSyncService,
	notificationService *NotificationService,
	tracking TrackingIssuer,
	lockStore redis.LockStoreInterface,
) *AssignmentService {
	return &AssignmentService{
		tx:                  tx,
		tripRepo:            tripRepo,
		driverRepo:          driverRepo,
		rateService:         rateService,
		history:             history,
		linkedLegs:          linkedLegs,
		notificationService: notificationService,
		tracking:            tracking,
		lockStore:           lockStore,
	}
}

// AssignRequest contains the parameters for assigning a driver to a trip.
type AssignRequest struct {
	TripID    string
	DriverID  string
	VehicleID string
	Actor     Actor
}

// Assign assigns or reassigns a driver (and optionally vehicle) to a trip.
//
// A new assignment (no prior driver, or the trip still PENDING) moves the
// trip to SCHEDULED. A reassignment of an already-progressing trip swaps the
// driver and recomputes the payout but leaves status untouched. Failures
// before the trip write abort with no mutation; notification, tracking-link,
// history, and return-leg propagation failures after it are logged only.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	// Serialize assignments per trip so two dispatchers cannot race.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireTripLock(ctx, req.TripID, assignmentLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrTripBeingAssigned
		}
		defer func() { _ = s.lockStore.ReleaseTripLock(ctx, req.TripID) }()
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	// A missing rate configuration degrades to a zero payout; a malformed one
	// aborts the assignment.
	payout, _, err := s.rateService.PayoutForDriver(ctx, driver.ID, trip.ServiceLevel, trip.DistanceMiles)
	if err != nil {
		return nil, err
	}

	previousDriverID := trip.DriverID
	newAssignment := previousDriverID == "" || trip.Status == domain.TripStatusPending

	oldStatus := trip.Status
	trip.DriverID = driver.ID
	if req.VehicleID != "" {
		trip.VehicleID = req.VehicleID
	}
	trip.DriverPayout = payout
	trip.PayoutOverridden = false
	trip.LastModifiedByID = req.Actor.ID
	trip.LastModifiedByName = req.Actor.Name
	trip.UpdatedAt = time.Now()

	statusChanged := false
	if newAssignment && trip.Status == domain.TripStatusPending {
		if err := ApplyTransition(trip, domain.TripStatusScheduled, TransitionInput{}); err != nil {
			return nil, err
		}
		statusChanged = true
	}

	err = s.tx.InTx(ctx, func(trips repository.TripRepository, history repository.ChangeHistoryRepository) error {
		if err := trips.Update(ctx, trip); err != nil {
			return err
		}
		if statusChanged {
			return history.Create(ctx, NewStatusChangeRecord(trip.ID, oldStatus, trip.Status, req.Actor))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Everything below is best-effort; the assignment is already committed.
	s.recordAssignment(ctx, trip, previousDriverID, driver, req.Actor)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyDriverAssigned(ctx, trip, driver)
	}

	if s.tracking != nil {
		if _, err := s.tracking.IssueTrackingLink(ctx, trip.ID); err != nil {
			log.Printf("tracking link issue failed: trip=%s: %v", trip.ID, err)
		}
	}

	if s.linkedLegs != nil {
		patch := TripPatch{DriverID: &req.DriverID}
		if req.VehicleID != "" {
			vehicleID := req.VehicleID
			patch.VehicleID = &vehicleID
		}
		s.linkedLegs.SyncReturnLeg(ctx, trip, patch, req.Actor)
	}

	return trip, nil
}

func (s *AssignmentService) recordAssignment(ctx context.Context, trip *domain.Trip, previousDriverID string, driver *domain.Driver, actor Actor) {
	if s.history == nil {
		return
	}

	changeType := domain.ChangeTypeDriverAssigned
	description := fmt.Sprintf("driver %s assigned", driver.Name)
	if previousDriverID != "" && previousDriverID != driver.ID {
		changeType = domain.ChangeTypeDriverReassigned
		description = fmt.Sprintf("driver reassigned from %s to %s", previousDriverID, driver.ID)
	}

	s.history.Record(ctx, &domain.ChangeHistory{
		TripID:      trip.ID,
		ChangeType:  changeType,
		FieldName:   "driver_id",
		OldValue:    previousDriverID,
		NewValue:    driver.ID,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Description: description,
	})
}
