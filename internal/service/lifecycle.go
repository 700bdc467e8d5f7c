package service

import (
	"context"
	"time"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// TripLifecycleService applies status transitions to trips. Every accepted
// transition persists the trip mutation and its STATUS_CHANGED history record
// in one transaction; a rejected transition mutates nothing.
type TripLifecycleService struct {
	tx                  TxRunner
	tripRepo            repository.TripRepository
	notificationService *NotificationService
}

// NewTripLifecycleService creates a new TripLifecycleService.
func NewTripLifecycleService(
	tx TxRunner,
	tripRepo repository.TripRepository,
	notificationService *NotificationService,
) *TripLifecycleService {
	return &TripLifecycleService{
		tx:                  tx,
		tripRepo:            tripRepo,
		notificationService: notificationService,
	}
}

// ChangeStatusRequest contains the parameters for a status transition.
type ChangeStatusRequest struct {
	TripID      string
	NewStatus   domain.TripStatus
	Location    *domain.GeoPoint
	SignatureID string
	Reason      string
	Actor       Actor
}

// ChangeStatus validates and applies one status transition.
func (s *TripLifecycleService) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	oldStatus := trip.Status
	if err := ApplyTransition(trip, req.NewStatus, TransitionInput{
		Location:    req.Location,
		SignatureID: req.SignatureID,
		Reason:      req.Reason,
	}); err != nil {
		return nil, err
	}

	if err := s.persistStatusChange(ctx, trip, oldStatus, req.Actor); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		// A cancellation gets its dedicated message, never a generic status
		// update on top of it.
		if trip.Status == domain.TripStatusCancelled {
			_ = s.notificationService.NotifyTripCancelled(ctx, trip, trip.CancellationReason)
		} else {
			_ = s.notificationService.NotifyStatusChanged(ctx, trip, oldStatus)
		}
	}

	return trip, nil
}

// CancelRequest contains the parameters for cancelling a trip.
type CancelRequest struct {
	TripID string
	Reason string
	Actor  Actor
}

// Cancel moves a trip to CANCELLED with the dispatcher's reason. The driver
// notification is sent by ChangeStatus, which recognizes the cancel target.
func (s *TripLifecycleService) Cancel(ctx context.Context, req CancelRequest) (*domain.Trip, error) {
	return s.ChangeStatus(ctx, ChangeStatusRequest{
		TripID:    req.TripID,
		NewStatus: domain.TripStatusCancelled,
		Reason:    req.Reason,
		Actor:     req.Actor,
	})
}

// ReinstateRequest contains the parameters for reinstating a trip.
type ReinstateRequest struct {
	TripID string
	Actor  Actor
}

// Reinstate returns a cancelled or no-show trip to SCHEDULED (driver still
// assigned) or PENDING (no driver), clearing the cancellation fields.
func (s *TripLifecycleService) Reinstate(ctx context.Context, req ReinstateRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	oldStatus := trip.Status
	if err := ApplyReinstate(trip); err != nil {
		return nil, err
	}

	if err := s.persistStatusChange(ctx, trip, oldStatus, req.Actor); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripReinstated(ctx, trip)
	}

	return trip, nil
}

func (s *TripLifecycleService) persistStatusChange(ctx context.Context, trip *domain.Trip, oldStatus domain.TripStatus, actor Actor) error {
	trip.LastModifiedByID = actor.ID
	trip.LastModifiedByName = actor.Name
	trip.UpdatedAt = time.Now()

	return s.tx.InTx(ctx, func(trips repository.TripRepository, history repository.ChangeHistoryRepository) error {
		if err := trips.Update(ctx, trip); err != nil {
			return err
		}
		return history.Create(ctx, NewStatusChangeRecord(trip.ID, oldStatus, trip.Status, actor))
	})
}
