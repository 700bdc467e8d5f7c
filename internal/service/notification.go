package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"nemt/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDriverAssigned NotificationType = "DRIVER_ASSIGNED"
	NotificationStatusChanged  NotificationType = "STATUS_CHANGED"
	NotificationTripCancelled  NotificationType = "TRIP_CANCELLED"
	NotificationTripReinstated NotificationType = "TRIP_REINSTATED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationSink is a delivery transport for notifications.
type NotificationSink interface {
	Deliver(ctx context.Context, notification Notification) error
}

// NotificationService delivers dispatch events to drivers and facilities.
// Delivery is always best-effort; callers never treat a failure here as a
// failure of the operation that triggered it.
type NotificationService struct {
	// Delivery transports (push, SMS, email) are owned by the surrounding
	// platform and plugged in behind the sink. A nil sink logs instead.
	sink NotificationSink
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NewNotificationServiceWithSink creates a NotificationService delivering
// through the given transport.
func NewNotificationServiceWithSink(sink NotificationSink) *NotificationService {
	return &NotificationService{sink: sink}
}

// NotifyDriverAssigned notifies the driver of a new or changed assignment.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, trip *domain.Trip, driver *domain.Driver) error {
	return s.send(ctx, Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: driver.ID,
		Title:       "Trip Assigned",
		Message:     fmt.Sprintf("You have been assigned trip %s (%s pickup)", trip.TripNumber, trip.ServiceLevel),
		Data: map[string]interface{}{
			"trip_id":     trip.ID,
			"trip_number": trip.TripNumber,
			"pickup_at":   trip.ScheduledPickupAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyStatusChanged notifies interested parties of a status transition.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, trip *domain.Trip, oldStatus domain.TripStatus) error {
	return s.send(ctx, Notification{
		Type:        NotificationStatusChanged,
		RecipientID: trip.DispatcherID,
		Title:       "Trip Status Updated",
		Message:     fmt.Sprintf("Trip %s moved from %s to %s", trip.TripNumber, oldStatus, trip.Status),
		Data: map[string]interface{}{
			"trip_id":    trip.ID,
			"old_status": string(oldStatus),
			"new_status": string(trip.Status),
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTripCancelled notifies the assigned driver of a cancellation.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, trip *domain.Trip, reason string) error {
	if trip.DriverID == "" {
		return nil
	}

	return s.send(ctx, Notification{
		Type:        NotificationTripCancelled,
		RecipientID: trip.DriverID,
		Title:       "Trip Cancelled",
		Message:     fmt.Sprintf("Trip %s was cancelled: %s", trip.TripNumber, reason),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"reason":  reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTripReinstated notifies the assigned driver that a cancelled trip is
// back on their schedule.
func (s *NotificationService) NotifyTripReinstated(ctx context.Context, trip *domain.Trip) error {
	if trip.DriverID == "" {
		return nil
	}

	return s.send(ctx, Notification{
		Type:        NotificationTripReinstated,
		RecipientID: trip.DriverID,
		Title:       "Trip Reinstated",
		Message:     fmt.Sprintf("Trip %s has been reinstated", trip.TripNumber),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	if s.sink != nil {
		return s.sink.Deliver(ctx, notification)
	}

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
	return nil
}
