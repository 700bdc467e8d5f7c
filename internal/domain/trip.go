package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending    TripStatus = "PENDING"
	TripStatusScheduled  TripStatus = "SCHEDULED"
	TripStatusEnRoute    TripStatus = "EN_ROUTE"
	TripStatusArrived    TripStatus = "ARRIVED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusDroppedOff TripStatus = "DROPPED_OFF"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
	TripStatusNoShow     TripStatus = "NO_SHOW"
)

// ServiceLevel represents the vehicle/assistance category for a trip.
type ServiceLevel string

const (
	ServiceLevelAmbulatory ServiceLevel = "AMBULATORY"
	ServiceLevelWheelchair ServiceLevel = "WHEELCHAIR"
	ServiceLevelStretcher  ServiceLevel = "STRETCHER"
)

// JourneyType represents the shape of a booked journey.
type JourneyType string

const (
	JourneyTypeOneWay    JourneyType = "ONE_WAY"
	JourneyTypeRoundTrip JourneyType = "ROUNDTRIP"
	JourneyTypeMultiStop JourneyType = "MULTI_STOP"
	JourneyTypeRecurring JourneyType = "RECURRING"
)

// Trip represents a single leg of a patient transport.
//
// TripNumber is assigned exactly once at creation ("<sequence>A" for an
// outbound leg, "<sequence>B" for its return) and is never mutated afterwards.
// A round trip is stored as two Trip rows cross-linked via LinkedTripID.
type Trip struct {
	ID             string
	TripNumber     string
	OrganizationID string

	// Parties.
	PatientID      string
	PassengerName  string
	PassengerPhone string
	PassengerEmail string
	DriverID       string
	VehicleID      string
	FacilityID     string
	ClinicID       string

	// Itinerary.
	PickupAddress     string
	PickupCity        string
	PickupState       string
	PickupZip         string
	DropoffAddress    string
	DropoffCity       string
	DropoffState      string
	DropoffZip        string
	ScheduledPickupAt time.Time
	AppointmentAt     time.Time
	ActualPickupAt    time.Time
	ActualDropoffAt   time.Time

	// Classification.
	ServiceLevel ServiceLevel
	JourneyType  JourneyType
	IsReturnTrip bool
	WillCall     bool

	// Linkage.
	LinkedTripID    string
	RecurringTripID string

	// Financials. DriverPayout is a snapshot of the rate resolver's output at
	// assignment time; later rate-table edits do not touch it.
	DistanceMiles    float64
	Fare             float64
	DriverPayout     float64
	PayoutOverridden bool
	WaitTimeMinutes  int
	WaitTimeCharge   float64

	Status             TripStatus
	CancellationReason string
	CancelledAt        time.Time

	// Captured at the IN_PROGRESS transition.
	PickupLat   float64
	PickupLng   float64
	SignatureID string

	Notes string

	// Provenance.
	CreatedBy          string
	DispatcherID       string
	DispatcherName     string
	LastModifiedByID   string
	LastModifiedByName string

	// Version backs compare-and-swap updates in the store.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KnownServiceLevel reports whether level is one of the three supported levels.
func KnownServiceLevel(level ServiceLevel) bool {
	switch level {
	case ServiceLevelAmbulatory, ServiceLevelWheelchair, ServiceLevelStretcher:
		return true
	}
	return false
}
