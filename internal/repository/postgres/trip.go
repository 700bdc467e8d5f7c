package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, trip_number, organization_id,
	patient_id, passenger_name, passenger_phone, passenger_email,
	driver_id, vehicle_id, facility_id, clinic_id,
	pickup_address, pickup_city, pickup_state, pickup_zip,
	dropoff_address, dropoff_city, dropoff_state, dropoff_zip,
	scheduled_pickup_at, appointment_at, actual_pickup_at, actual_dropoff_at,
	service_level, journey_type, is_return_trip, will_call,
	linked_trip_id, recurring_trip_id,
	distance_miles, fare, driver_payout, payout_overridden,
	wait_time_minutes, wait_time_charge,
	status, cancellation_reason, cancelled_at,
	pickup_lat, pickup_lng, signature_id, notes,
	created_by, dispatcher_id, dispatcher_name,
	last_modified_by_id, last_modified_by_name,
	version, created_at, updated_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
			$41, $42, $43, $44, $45, $46, $47, $48, $49, $50)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID, trip.TripNumber, trip.OrganizationID,
		trip.PatientID, trip.PassengerName, trip.PassengerPhone, trip.PassengerEmail,
		trip.DriverID, trip.VehicleID, trip.FacilityID, trip.ClinicID,
		trip.PickupAddress, trip.PickupCity, trip.PickupState, trip.PickupZip,
		trip.DropoffAddress, trip.DropoffCity, trip.DropoffState, trip.DropoffZip,
		nullTime(trip.ScheduledPickupAt), nullTime(trip.AppointmentAt),
		nullTime(trip.ActualPickupAt), nullTime(trip.ActualDropoffAt),
		trip.ServiceLevel, trip.JourneyType, trip.IsReturnTrip, trip.WillCall,
		trip.LinkedTripID, trip.RecurringTripID,
		trip.DistanceMiles, trip.Fare, trip.DriverPayout, trip.PayoutOverridden,
		trip.WaitTimeMinutes, trip.WaitTimeCharge,
		trip.Status, trip.CancellationReason, nullTime(trip.CancelledAt),
		trip.PickupLat, trip.PickupLng, trip.SignatureID, trip.Notes,
		trip.CreatedBy, trip.DispatcherID, trip.DispatcherName,
		trip.LastModifiedByID, trip.LastModifiedByName,
		trip.Version, trip.CreatedAt, trip.UpdatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByTripNumber retrieves a trip by its human-readable trip number.
func (r *TripRepository) GetByTripNumber(ctx context.Context, tripNumber string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE trip_number = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, tripNumber))
}

// GetAll retrieves recent trips for an organization.
func (r *TripRepository) GetAll(ctx context.Context, organizationID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips WHERE organization_id = $1
		ORDER BY scheduled_pickup_at DESC LIMIT 200
	`

	rows, err := r.q.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip with compare-and-swap on version.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			patient_id = $1, passenger_name = $2, passenger_phone = $3, passenger_email = $4,
			driver_id = $5, vehicle_id = $6, facility_id = $7, clinic_id = $8,
			pickup_address = $9, pickup_city = $10, pickup_state = $11, pickup_zip = $12,
			dropoff_address = $13, dropoff_city = $14, dropoff_state = $15, dropoff_zip = $16,
			scheduled_pickup_at = $17, appointment_at = $18, actual_pickup_at = $19, actual_dropoff_at = $20,
			service_level = $21, journey_type = $22, will_call = $23,
			distance_miles = $24, fare = $25, driver_payout = $26, payout_overridden = $27,
			wait_time_minutes = $28, wait_time_charge = $29,
			status = $30, cancellation_reason = $31, cancelled_at = $32,
			pickup_lat = $33, pickup_lng = $34, signature_id = $35, notes = $36,
			last_modified_by_id = $37, last_modified_by_name = $38,
			version = version + 1, updated_at = $39
		WHERE id = $40 AND version = $41
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.PatientID, trip.PassengerName, trip.PassengerPhone, trip.PassengerEmail,
		trip.DriverID, trip.VehicleID, trip.FacilityID, trip.ClinicID,
		trip.PickupAddress, trip.PickupCity, trip.PickupState, trip.PickupZip,
		trip.DropoffAddress, trip.DropoffCity, trip.DropoffState, trip.DropoffZip,
		nullTime(trip.ScheduledPickupAt), nullTime(trip.AppointmentAt),
		nullTime(trip.ActualPickupAt), nullTime(trip.ActualDropoffAt),
		trip.ServiceLevel, trip.JourneyType, trip.WillCall,
		trip.DistanceMiles, trip.Fare, trip.DriverPayout, trip.PayoutOverridden,
		trip.WaitTimeMinutes, trip.WaitTimeCharge,
		trip.Status, trip.CancellationReason, nullTime(trip.CancelledAt),
		trip.PickupLat, trip.PickupLng, trip.SignatureID, trip.Notes,
		trip.LastModifiedByID, trip.LastModifiedByName,
		trip.UpdatedAt,
		trip.ID, trip.Version,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, trip.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return repository.ErrVersionConflict
		}
		return repository.ErrNotFound
	}

	trip.Version++
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TripRepository) scanOne(row *sql.Row) (*domain.Trip, error) {
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var scheduledAt, appointmentAt, pickupAt, dropoffAt, cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID, &trip.TripNumber, &trip.OrganizationID,
		&trip.PatientID, &trip.PassengerName, &trip.PassengerPhone, &trip.PassengerEmail,
		&trip.DriverID, &trip.VehicleID, &trip.FacilityID, &trip.ClinicID,
		&trip.PickupAddress, &trip.PickupCity, &trip.PickupState, &trip.PickupZip,
		&trip.DropoffAddress, &trip.DropoffCity, &trip.DropoffState, &trip.DropoffZip,
		&scheduledAt, &appointmentAt, &pickupAt, &dropoffAt,
		&trip.ServiceLevel, &trip.JourneyType, &trip.IsReturnTrip, &trip.WillCall,
		&trip.LinkedTripID, &trip.RecurringTripID,
		&trip.DistanceMiles, &trip.Fare, &trip.DriverPayout, &trip.PayoutOverridden,
		&trip.WaitTimeMinutes, &trip.WaitTimeCharge,
		&trip.Status, &trip.CancellationReason, &cancelledAt,
		&trip.PickupLat, &trip.PickupLng, &trip.SignatureID, &trip.Notes,
		&trip.CreatedBy, &trip.DispatcherID, &trip.DispatcherName,
		&trip.LastModifiedByID, &trip.LastModifiedByName,
		&trip.Version, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledAt.Valid {
		trip.ScheduledPickupAt = scheduledAt.Time
	}
	if appointmentAt.Valid {
		trip.AppointmentAt = appointmentAt.Time
	}
	if pickupAt.Valid {
		trip.ActualPickupAt = pickupAt.Time
	}
	if dropoffAt.Valid {
		trip.ActualDropoffAt = dropoffAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
