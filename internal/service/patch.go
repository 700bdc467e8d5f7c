package service

import (
	"fmt"
	"time"

	"nemt/internal/domain"
)

// TripPatch is a partial update to a trip. Nil fields are untouched; set
// fields are applied one by one so every change is named in the audit trail.
//
// TripNumber is accepted for wire compatibility but never applied: trip
// numbers are immutable after creation.
type TripPatch struct {
	PassengerName  *string
	PassengerPhone *string
	PassengerEmail *string

	DriverID  *string
	VehicleID *string

	PickupAddress  *string
	PickupCity     *string
	PickupState    *string
	PickupZip      *string
	DropoffAddress *string
	DropoffCity    *string
	DropoffState   *string
	DropoffZip     *string

	ScheduledPickupAt *time.Time
	AppointmentAt     *time.Time
	WillCall          *bool

	ServiceLevel  *domain.ServiceLevel
	DistanceMiles *float64
	Fare          *float64

	WaitTimeMinutes *int
	WaitTimeCharge  *float64

	Notes *string

	TripNumber *string
}

// FieldChange records one applied patch field for the audit trail.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Apply writes the patch's set fields onto trip and returns the list of
// fields that actually changed. The apply step is exhaustive and explicit;
// there is no reflection-based diffing.
func (p TripPatch) Apply(trip *domain.Trip) []FieldChange {
	var changes []FieldChange

	setString := func(field string, dst *string, src *string) {
		if src == nil || *src == *dst {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: *dst, NewValue: *src})
		*dst = *src
	}
	setFloat := func(field string, dst *float64, src *float64) {
		if src == nil || *src == *dst {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: formatFloat(*dst), NewValue: formatFloat(*src)})
		*dst = *src
	}

	setString("passenger_name", &trip.PassengerName, p.PassengerName)
	setString("passenger_phone", &trip.PassengerPhone, p.PassengerPhone)
	setString("passenger_email", &trip.PassengerEmail, p.PassengerEmail)

	setString("driver_id", &trip.DriverID, p.DriverID)
	setString("vehicle_id", &trip.VehicleID, p.VehicleID)

	setString("pickup_address", &trip.PickupAddress, p.PickupAddress)
	setString("pickup_city", &trip.PickupCity, p.PickupCity)
	setString("pickup_state", &trip.PickupState, p.PickupState)
	setString("pickup_zip", &trip.PickupZip, p.PickupZip)
	setString("dropoff_address", &trip.DropoffAddress, p.DropoffAddress)
	setString("dropoff_city", &trip.DropoffCity, p.DropoffCity)
	setString("dropoff_state", &trip.DropoffState, p.DropoffState)
	setString("dropoff_zip", &trip.DropoffZip, p.DropoffZip)

	if p.ScheduledPickupAt != nil && !p.ScheduledPickupAt.Equal(trip.ScheduledPickupAt) {
		changes = append(changes, FieldChange{
			Field:    "scheduled_pickup_at",
			OldValue: formatTime(trip.ScheduledPickupAt),
			NewValue: formatTime(*p.ScheduledPickupAt),
		})
		trip.ScheduledPickupAt = *p.ScheduledPickupAt
	}
	if p.AppointmentAt != nil && !p.AppointmentAt.Equal(trip.AppointmentAt) {
		changes = append(changes, FieldChange{
			Field:    "appointment_at",
			OldValue: formatTime(trip.AppointmentAt),
			NewValue: formatTime(*p.AppointmentAt),
		})
		trip.AppointmentAt = *p.AppointmentAt
	}
	if p.WillCall != nil && *p.WillCall != trip.WillCall {
		changes = append(changes, FieldChange{
			Field:    "will_call",
			OldValue: strconvBool(trip.WillCall),
			NewValue: strconvBool(*p.WillCall),
		})
		trip.WillCall = *p.WillCall
	}

	if p.ServiceLevel != nil && *p.ServiceLevel != trip.ServiceLevel {
		changes = append(changes, FieldChange{
			Field:    "service_level",
			OldValue: string(trip.ServiceLevel),
			NewValue: string(*p.ServiceLevel),
		})
		trip.ServiceLevel = *p.ServiceLevel
	}

	setFloat("distance_miles", &trip.DistanceMiles, p.DistanceMiles)
	setFloat("fare", &trip.Fare, p.Fare)
	setFloat("wait_time_charge", &trip.WaitTimeCharge, p.WaitTimeCharge)

	if p.WaitTimeMinutes != nil && *p.WaitTimeMinutes != trip.WaitTimeMinutes {
		changes = append(changes, FieldChange{
			Field:    "wait_time_minutes",
			OldValue: fmt.Sprintf("%d", trip.WaitTimeMinutes),
			NewValue: fmt.Sprintf("%d", *p.WaitTimeMinutes),
		})
		trip.WaitTimeMinutes = *p.WaitTimeMinutes
	}

	setString("notes", &trip.Notes, p.Notes)

	// p.TripNumber deliberately ignored.

	return changes
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func strconvBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
