package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"nemt/internal/domain"
	"nemt/internal/repository"
	"nemt/internal/service"
)

func newTripService(tripRepo *MockTripRepository, historyRepo *MockChangeHistoryRepository, rateRepo *MockRateRepository, seq *MockTripSequence) *service.TripService {
	tx := NewMockTxRunner(tripRepo, historyRepo)
	recorder := service.NewHistoryRecorder(historyRepo)
	rates := service.NewRateService(rateRepo, nil)
	allocator := service.NewTripNumberAllocator(seq)
	linkedLegs := service.NewLinkedLegSyncService(tripRepo, recorder)
	return service.NewTripService(tx, tripRepo, allocator, rates, recorder, linkedLegs)
}

func validCreateRequest() service.CreateTripRequest {
	return service.CreateTripRequest{
		PatientID:         "patient-1",
		PassengerName:     "Mary Jones",
		PassengerPhone:    "555-0101",
		FacilityID:        "fac-1",
		PickupAddress:     "12 Oak St",
		PickupCity:        "Springfield",
		DropoffAddress:    "400 Hospital Dr",
		DropoffCity:       "Springfield",
		ScheduledPickupAt: time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC),
		AppointmentAt:     time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		ServiceLevel:      domain.ServiceLevelAmbulatory,
		JourneyType:       domain.JourneyTypeOneWay,
		DistanceMiles:     8,
		Actor:             service.Actor{ID: "disp-1", Name: "Dana", OrganizationID: "org-1"},
	}
}

// ──────────────────────────────────────────────
// TRIP CREATION
// ──────────────────────────────────────────────

func TestCreateTrip_OneWay(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	historyRepo := NewMockChangeHistoryRepository()
	rateRepo := NewMockRateRepository()
	rateRepo.SetFacilityRates("fac-1", []domain.FacilityRate{
		{FacilityID: "fac-1", ServiceLevel: domain.ServiceLevelAmbulatory, Amount: 45},
	})
	svc := newTripService(tripRepo, historyRepo, rateRepo, NewMockTripSequence(1000))

	resp, err := svc.CreateTrip(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Trip.TripNumber != "1000A" {
		t.Errorf("expected trip number 1000A, got %s", resp.Trip.TripNumber)
	}
	if resp.ReturnTrip != nil {
		t.Error("one-way trip must not create a return leg")
	}
	if resp.Trip.Status != domain.TripStatusPending {
		t.Errorf("expected PENDING, got %s", resp.Trip.Status)
	}
	if resp.Trip.Fare != 45 {
		t.Errorf("expected fare 45 from facility rate, got %.2f", resp.Trip.Fare)
	}
	if resp.Trip.OrganizationID != "org-1" {
		t.Errorf("expected organization from actor, got %q", resp.Trip.OrganizationID)
	}
	if tripRepo.CountTrips() != 1 {
		t.Errorf("expected 1 stored trip, got %d", tripRepo.CountTrips())
	}
	if len(historyRepo.RecordsOfType(resp.Trip.ID, domain.ChangeTypeCreated)) != 1 {
		t.Error("expected one CREATED history record")
	}
}

func TestCreateTrip_RoundTripLinksLegs(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	historyRepo := NewMockChangeHistoryRepository()
	rateRepo := NewMockRateRepository()
	svc := newTripService(tripRepo, historyRepo, rateRepo, NewMockTripSequence(42))

	req := validCreateRequest()
	req.JourneyType = domain.JourneyTypeRoundTrip
	req.ReturnScheduledPickupAt = time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)

	resp, err := svc.CreateTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Trip.TripNumber != "42A" || resp.ReturnTrip.TripNumber != "42B" {
		t.Errorf("expected 42A/42B pair, got %s/%s", resp.Trip.TripNumber, resp.ReturnTrip.TripNumber)
	}
	if resp.Trip.LinkedTripID != resp.ReturnTrip.ID || resp.ReturnTrip.LinkedTripID != resp.Trip.ID {
		t.Error("expected legs cross-linked by ID")
	}
	if !resp.ReturnTrip.IsReturnTrip {
		t.Error("expected return leg flagged")
	}

	// Return leg itinerary is the outbound reversed.
	if resp.ReturnTrip.PickupAddress != req.DropoffAddress || resp.ReturnTrip.DropoffAddress != req.PickupAddress {
		t.Errorf("expected reversed itinerary, got pickup %q dropoff %q",
			resp.ReturnTrip.PickupAddress, resp.ReturnTrip.DropoffAddress)
	}

	// The return leg keeps its own pickup time, and no appointment.
	if !resp.ReturnTrip.ScheduledPickupAt.Equal(req.ReturnScheduledPickupAt) {
		t.Errorf("expected return pickup at %v, got %v", req.ReturnScheduledPickupAt, resp.ReturnTrip.ScheduledPickupAt)
	}
	if !resp.ReturnTrip.AppointmentAt.IsZero() {
		t.Error("return leg must not inherit the outbound appointment time")
	}

	if tripRepo.CountTrips() != 2 {
		t.Errorf("expected both legs stored, got %d", tripRepo.CountTrips())
	}
}

func TestCreateTrip_WillCallReturnLeg(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	svc := newTripService(tripRepo, NewMockChangeHistoryRepository(), NewMockRateRepository(), NewMockTripSequence(1))

	req := validCreateRequest()
	req.JourneyType = domain.JourneyTypeRoundTrip
	req.ReturnWillCall = true

	resp, err := svc.CreateTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.ReturnTrip.WillCall {
		t.Error("expected return leg marked will-call")
	}
	if !resp.ReturnTrip.ScheduledPickupAt.IsZero() {
		t.Error("will-call return must have no scheduled pickup")
	}
}

func TestCreateTrip_RequiresPassengerName(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockTripRepository(), NewMockChangeHistoryRepository(), NewMockRateRepository(), NewMockTripSequence(1))

	req := validCreateRequest()
	req.PassengerName = ""

	_, err := svc.CreateTrip(context.Background(), req)
	if !errors.Is(err, service.ErrInvalidPassengerName) {
		t.Fatalf("expected ErrInvalidPassengerName, got %v", err)
	}
}

func TestCreateTrip_RequiresPickupTimeUnlessWillCall(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockTripRepository(), NewMockChangeHistoryRepository(), NewMockRateRepository(), NewMockTripSequence(1))

	req := validCreateRequest()
	req.ScheduledPickupAt = time.Time{}

	_, err := svc.CreateTrip(context.Background(), req)
	if !errors.Is(err, service.ErrInvalidScheduledTime) {
		t.Fatalf("expected ErrInvalidScheduledTime, got %v", err)
	}

	// Will-call trips defer the pickup time.
	req.WillCall = true
	if _, err := svc.CreateTrip(context.Background(), req); err != nil {
		t.Fatalf("will-call trip should not require a pickup time: %v", err)
	}
}

func TestCreateTrip_NoFacilityRateDegradesToZeroFare(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockTripRepository(), NewMockChangeHistoryRepository(), NewMockRateRepository(), NewMockTripSequence(1))

	resp, err := svc.CreateTrip(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Trip.Fare != 0 {
		t.Errorf("expected zero fare without rate configuration, got %.2f", resp.Trip.Fare)
	}
}

// ──────────────────────────────────────────────
// TRIP NUMBER ALLOCATION
// ──────────────────────────────────────────────

func TestAllocatePair_SharesOneSequenceValue(t *testing.T) {
	t.Parallel()

	allocator := service.NewTripNumberAllocator(NewMockTripSequence(7))

	outbound, ret, err := allocator.AllocatePair(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outbound != "7A" || ret != "7B" {
		t.Errorf("expected 7A/7B, got %s/%s", outbound, ret)
	}

	// The next allocation must not reuse the sequence value.
	next, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != "8A" {
		t.Errorf("expected 8A, got %s", next)
	}
}

func TestReturnNumberFor(t *testing.T) {
	t.Parallel()

	ret, ok := service.ReturnNumberFor("123A")
	if !ok || ret != "123B" {
		t.Errorf("expected 123B, got %s (ok=%v)", ret, ok)
	}

	if _, ok := service.ReturnNumberFor("123B"); ok {
		t.Error("a return number has no paired return")
	}
}

// ──────────────────────────────────────────────
// TRIP UPDATE
// ──────────────────────────────────────────────

func TestUpdateTrip_RecordsOneHistoryRowPerField(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	historyRepo := NewMockChangeHistoryRepository()
	svc := newTripService(tripRepo, historyRepo, NewMockRateRepository(), NewMockTripSequence(1))

	tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		TripNumber:    "10A",
		Status:        domain.TripStatusPending,
		PassengerName: "Mary Jones",
		Notes:         "",
	})

	name := "Mary J. Jones"
	notes := "wheelchair ramp at pickup"
	trip, err := svc.UpdateTrip(context.Background(), "trip-1", service.TripPatch{
		PassengerName: &name,
		Notes:         &notes,
	}, service.Actor{ID: "disp-1", Name: "Dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.PassengerName != name || trip.Notes != notes {
		t.Error("expected patch applied")
	}

	records := historyRepo.RecordsOfType("trip-1", domain.ChangeTypeFieldUpdated)
	if len(records) != 2 {
		t.Fatalf("expected 2 FIELD_UPDATED records, got %d", len(records))
	}
	if records[0].FieldName != "passenger_name" || records[0].NewValue != name {
		t.Errorf("unexpected first record: %+v", records[0])
	}
}

func TestUpdateTrip_TripNumberIsImmutable(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	historyRepo := NewMockChangeHistoryRepository()
	svc := newTripService(tripRepo, historyRepo, NewMockRateRepository(), NewMockTripSequence(1))

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", TripNumber: "10A", Status: domain.TripStatusPending})

	hijack := "999A"
	notes := "updated"
	trip, err := svc.UpdateTrip(context.Background(), "trip-1", service.TripPatch{
		TripNumber: &hijack,
		Notes:      &notes,
	}, service.Actor{ID: "disp-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.TripNumber != "10A" {
		t.Errorf("trip number must be immutable, got %s", trip.TripNumber)
	}
	if trip.Notes != "updated" {
		t.Error("other patch fields must still apply")
	}
}

func TestUpdateTrip_NoOpPatchSkipsWrite(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	historyRepo := NewMockChangeHistoryRepository()
	svc := newTripService(tripRepo, historyRepo, NewMockRateRepository(), NewMockTripSequence(1))

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", TripNumber: "10A", PassengerName: "Mary Jones"})

	same := "Mary Jones"
	_, err := svc.UpdateTrip(context.Background(), "trip-1", service.TripPatch{PassengerName: &same}, service.Actor{ID: "disp-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tripRepo.UpdateCallCount != 0 {
		t.Errorf("expected no write for a no-op patch, got %d", tripRepo.UpdateCallCount)
	}
	if historyRepo.CountRecords() != 0 {
		t.Errorf("expected no history for a no-op patch, got %d", historyRepo.CountRecords())
	}
}

func TestUpdateTrip_VersionConflictSurfaces(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	svc := newTripService(tripRepo, NewMockChangeHistoryRepository(), NewMockRateRepository(), NewMockTripSequence(1))

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", TripNumber: "10A", Version: 3})
	tripRepo.UpdateError = repository.ErrVersionConflict

	notes := "conflicting edit"
	_, err := svc.UpdateTrip(context.Background(), "trip-1", service.TripPatch{Notes: &notes}, service.Actor{ID: "disp-1"})
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}
