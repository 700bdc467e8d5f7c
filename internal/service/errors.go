package service

import (
	"errors"
	"fmt"

	"nemt/internal/domain"
)

var (
	// ErrInvalidTripID is returned when a trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidDriverID is returned when a driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPassengerName is returned when a trip is created without a passenger name.
	ErrInvalidPassengerName = errors.New("invalid passenger name")

	// ErrInvalidScheduledTime is returned when a non-will-call trip has no scheduled pickup time.
	ErrInvalidScheduledTime = errors.New("scheduled pickup time required")

	// ErrMissingLocation is returned when a pickup transition arrives without GPS coordinates.
	ErrMissingLocation = errors.New("gps location required to start trip")

	// ErrMissingCancellationReason is returned when a cancellation has no reason.
	ErrMissingCancellationReason = errors.New("cancellation reason required")

	// ErrNotReinstatable is returned when reinstating a trip that is not cancelled or no-show.
	ErrNotReinstatable = errors.New("trip is not cancelled or no-show")

	// ErrTripBeingAssigned is returned when another assignment holds the trip lock.
	ErrTripBeingAssigned = errors.New("trip assignment already in progress")

	// ErrInvalidTrackingToken is returned when a tracking token is unknown or expired.
	ErrInvalidTrackingToken = errors.New("invalid tracking token")
)

// InvalidTransitionError is returned when a requested status change violates
// the trip state graph. It carries both states for diagnostics.
type InvalidTransitionError struct {
	Current   domain.TripStatus
	Attempted domain.TripStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.Current, e.Attempted)
}

// ConfigurationError is returned for an unknown service level or malformed
// rate tier data. It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "rate configuration error: " + e.Reason
}
