package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nemt/internal/domain"
	"nemt/internal/repository"
)

// TripService handles trip creation, partial updates, and reads.
type TripService struct {
	tx          TxRunner
	tripRepo    repository.TripRepository
	allocator   *TripNumberAllocator
	rateService *RateService
	history     *HistoryRecorder
	linkedLegs  *LinkedLegSyncService
}

// NewTripService creates a new TripService.
func NewTripService(
	tx TxRunner,
	tripRepo repository.TripRepository,
	allocator *TripNumberAllocator,
	rateService *RateService,
	history *HistoryRecorder,
	linkedLegs *LinkedLegSyncService,
) *TripService {
	return &TripService{
		tx:          tx,
		tripRepo:    tripRepo,
		allocator:   allocator,
		rateService: rateService,
		history:     history,
		linkedLegs:  linkedLegs,
	}
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	PatientID      string
	PassengerName  string
	PassengerPhone string
	PassengerEmail string

	FacilityID string
	ClinicID   string

	PickupAddress  string
	PickupCity     string
	PickupState    string
	PickupZip      string
	DropoffAddress string
	DropoffCity    string
	DropoffState   string
	DropoffZip     string

	ScheduledPickupAt time.Time
	AppointmentAt     time.Time
	WillCall          bool

	ServiceLevel  domain.ServiceLevel
	JourneyType   domain.JourneyType
	DistanceMiles float64

	RecurringTripID string

	// Round-trip only: the return leg's pickup time, or will-call.
	ReturnScheduledPickupAt time.Time
	ReturnWillCall          bool

	Notes string
	Actor Actor
}

// CreateTripResponse contains the created trip, plus the return leg for a
// round trip.
type CreateTripResponse struct {
	Trip       *domain.Trip
	ReturnTrip *domain.Trip
}

// CreateTrip creates a one-way trip, or a linked A/B pair for a round trip.
// The fare is resolved from the billing party's flat rates at creation time;
// a round-trip pair is inserted in one transaction so a lone leg never exists.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*CreateTripResponse, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	billingPartyID := req.FacilityID
	if billingPartyID == "" {
		billingPartyID = req.ClinicID
	}

	fare, err := s.rateService.FareForFacility(ctx, billingPartyID, req.ServiceLevel, req.DistanceMiles)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	outbound := &domain.Trip{
		ID:                uuid.New().String(),
		OrganizationID:    req.Actor.OrganizationID,
		PatientID:         req.PatientID,
		PassengerName:     req.PassengerName,
		PassengerPhone:    req.PassengerPhone,
		PassengerEmail:    req.PassengerEmail,
		FacilityID:        req.FacilityID,
		ClinicID:          req.ClinicID,
		PickupAddress:     req.PickupAddress,
		PickupCity:        req.PickupCity,
		PickupState:       req.PickupState,
		PickupZip:         req.PickupZip,
		DropoffAddress:    req.DropoffAddress,
		DropoffCity:       req.DropoffCity,
		DropoffState:      req.DropoffState,
		DropoffZip:        req.DropoffZip,
		ScheduledPickupAt: req.ScheduledPickupAt,
		AppointmentAt:     req.AppointmentAt,
		WillCall:          req.WillCall,
		ServiceLevel:      req.ServiceLevel,
		JourneyType:       req.JourneyType,
		DistanceMiles:     req.DistanceMiles,
		Fare:              fare,
		RecurringTripID:   req.RecurringTripID,
		Status:            domain.TripStatusPending,
		Notes:             req.Notes,
		CreatedBy:         req.Actor.ID,
		DispatcherID:      req.Actor.ID,
		DispatcherName:    req.Actor.Name,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var returnTrip *domain.Trip
	if req.JourneyType == domain.JourneyTypeRoundTrip {
		outboundNumber, returnNumber, err := s.allocator.AllocatePair(ctx)
		if err != nil {
			return nil, err
		}
		outbound.TripNumber = outboundNumber

		returnTrip = buildReturnLeg(outbound, req)
		returnTrip.TripNumber = returnNumber
		outbound.LinkedTripID = returnTrip.ID
		returnTrip.LinkedTripID = outbound.ID
	} else {
		number, err := s.allocator.Allocate(ctx, false)
		if err != nil {
			return nil, err
		}
		outbound.TripNumber = number
	}

	err = s.tx.InTx(ctx, func(trips repository.TripRepository, _ repository.ChangeHistoryRepository) error {
		if err := trips.Create(ctx, outbound); err != nil {
			return err
		}
		if returnTrip != nil {
			return trips.Create(ctx, returnTrip)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		s.recordCreated(ctx, outbound, req.Actor)
		if returnTrip != nil {
			s.recordCreated(ctx, returnTrip, req.Actor)
		}
	}

	return &CreateTripResponse{Trip: outbound, ReturnTrip: returnTrip}, nil
}

// UpdateTrip applies a partial update to a trip, records one FIELD_UPDATED
// history row per changed field, and mirrors the propagated subset onto the
// return leg when the trip is an outbound leg. The trip number is immutable;
// a patch carrying one is applied with that field ignored.
func (s *TripService) UpdateTrip(ctx context.Context, tripID string, patch TripPatch, actor Actor) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	changes := patch.Apply(trip)
	if len(changes) == 0 {
		return trip, nil
	}

	trip.LastModifiedByID = actor.ID
	trip.LastModifiedByName = actor.Name
	trip.UpdatedAt = time.Now()

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.history != nil {
		s.history.RecordFieldChanges(ctx, trip.ID, actor, changes)
	}

	if s.linkedLegs != nil {
		s.linkedLegs.SyncReturnLeg(ctx, trip, patch, actor)
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves recent trips for an organization.
func (s *TripService) GetAllTrips(ctx context.Context, organizationID string) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx, organizationID)
}

func (s *TripService) recordCreated(ctx context.Context, trip *domain.Trip, actor Actor) {
	s.history.Record(ctx, &domain.ChangeHistory{
		TripID:      trip.ID,
		ChangeType:  domain.ChangeTypeCreated,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Description: "trip " + trip.TripNumber + " created",
	})
}

func validateCreateRequest(req CreateTripRequest) error {
	if req.PassengerName == "" {
		return ErrInvalidPassengerName
	}
	if !domain.KnownServiceLevel(req.ServiceLevel) {
		return &ConfigurationError{Reason: "unknown service level " + string(req.ServiceLevel)}
	}
	if !req.WillCall && req.ScheduledPickupAt.IsZero() {
		return ErrInvalidScheduledTime
	}
	return nil
}

// buildReturnLeg derives the B leg of a round trip from its outbound leg:
// itinerary reversed, same passenger and classification, fare and distance
// mirrored from the outbound booking. The return pickup time is the
// dispatcher-provided time, or deferred entirely for a will-call return.
func buildReturnLeg(outbound *domain.Trip, req CreateTripRequest) *domain.Trip {
	ret := *outbound
	ret.ID = uuid.New().String()
	ret.IsReturnTrip = true
	ret.WillCall = req.ReturnWillCall
	ret.ScheduledPickupAt = req.ReturnScheduledPickupAt
	ret.AppointmentAt = time.Time{}

	ret.PickupAddress = outbound.DropoffAddress
	ret.PickupCity = outbound.DropoffCity
	ret.PickupState = outbound.DropoffState
	ret.PickupZip = outbound.DropoffZip
	ret.DropoffAddress = outbound.PickupAddress
	ret.DropoffCity = outbound.PickupCity
	ret.DropoffState = outbound.PickupState
	ret.DropoffZip = outbound.PickupZip

	return &ret
}
