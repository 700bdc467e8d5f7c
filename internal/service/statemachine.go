package service

import (
	"time"

	"nemt/internal/domain"
)

// transitions is the legal status graph. Forward operational transitions only
// move one step at a time; CANCELLED and NO_SHOW are reachable from any
// non-terminal state. PENDING has no inbound edges: trips start there, and the
// only other way in is reinstating a driverless terminal trip. Terminal states
// have no outgoing edges here; reinstating a cancelled or no-show trip is
// handled separately.
var transitions = map[domain.TripStatus][]domain.TripStatus{
	domain.TripStatusPending:    {domain.TripStatusScheduled, domain.TripStatusCancelled, domain.TripStatusNoShow},
	domain.TripStatusScheduled:  {domain.TripStatusEnRoute, domain.TripStatusCancelled, domain.TripStatusNoShow},
	domain.TripStatusEnRoute:    {domain.TripStatusArrived, domain.TripStatusCancelled, domain.TripStatusNoShow},
	domain.TripStatusArrived:    {domain.TripStatusInProgress, domain.TripStatusCancelled, domain.TripStatusNoShow},
	domain.TripStatusInProgress: {domain.TripStatusDroppedOff, domain.TripStatusCancelled, domain.TripStatusNoShow},
	domain.TripStatusDroppedOff: {domain.TripStatusCompleted, domain.TripStatusCancelled, domain.TripStatusNoShow},
}

// CanTransition reports whether the status graph permits from -> to.
func CanTransition(from, to domain.TripStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing operational edges.
func IsTerminal(status domain.TripStatus) bool {
	switch status {
	case domain.TripStatusCompleted, domain.TripStatusCancelled, domain.TripStatusNoShow:
		return true
	}
	return false
}

// TransitionInput carries the side-channel data some transitions require.
type TransitionInput struct {
	// Location is the driver's GPS position. Required for IN_PROGRESS.
	Location *domain.GeoPoint

	// SignatureID references a captured signature artifact, set on pickup in
	// the driver-facing workflow.
	SignatureID string

	// Reason is required for CANCELLED.
	Reason string

	// At is the transition timestamp; zero means time.Now().
	At time.Time
}

// ApplyTransition validates and applies a status change to trip in memory.
// On error the trip is left untouched; persisting the mutation is the
// caller's job. Timestamps for actual pickup/dropoff are stamped only here,
// on the transition into the corresponding state.
func ApplyTransition(trip *domain.Trip, to domain.TripStatus, in TransitionInput) error {
	if !CanTransition(trip.Status, to) {
		return &InvalidTransitionError{Current: trip.Status, Attempted: to}
	}

	at := in.At
	if at.IsZero() {
		at = time.Now()
	}

	switch to {
	case domain.TripStatusInProgress:
		if in.Location == nil {
			return ErrMissingLocation
		}
		trip.ActualPickupAt = at
		trip.PickupLat = in.Location.Latitude
		trip.PickupLng = in.Location.Longitude
		if in.SignatureID != "" {
			trip.SignatureID = in.SignatureID
		}

	case domain.TripStatusDroppedOff:
		trip.ActualDropoffAt = at

	case domain.TripStatusCancelled:
		if in.Reason == "" {
			return ErrMissingCancellationReason
		}
		trip.CancellationReason = in.Reason
		trip.CancelledAt = at

	case domain.TripStatusNoShow:
		trip.CancelledAt = at
	}

	trip.Status = to
	return nil
}

// ApplyReinstate returns a cancelled or no-show trip to the operational
// graph: SCHEDULED when a driver is still assigned, PENDING otherwise. The
// cancellation fields are cleared. This is the only sanctioned way out of a
// terminal state.
func ApplyReinstate(trip *domain.Trip) error {
	if trip.Status != domain.TripStatusCancelled && trip.Status != domain.TripStatusNoShow {
		return ErrNotReinstatable
	}

	trip.CancellationReason = ""
	trip.CancelledAt = time.Time{}

	if trip.DriverID != "" {
		trip.Status = domain.TripStatusScheduled
	} else {
		trip.Status = domain.TripStatusPending
	}

	return nil
}
