package tests

import (
	"context"
	"errors"
	"testing"

	"nemt/internal/domain"
	"nemt/internal/service"
)

type assignmentFixture struct {
	tripRepo    *MockTripRepository
	driverRepo  *MockDriverRepository
	rateRepo    *MockRateRepository
	historyRepo *MockChangeHistoryRepository
	lockStore   *MockLockStore
	tracking    *MockTrackingIssuer
	svc         *service.AssignmentService
}

func newAssignmentFixture() *assignmentFixture {
	f := &assignmentFixture{
		tripRepo:    NewMockTripRepository(),
		driverRepo:  NewMockDriverRepository(),
		rateRepo:    NewMockRateRepository(),
		historyRepo: NewMockChangeHistoryRepository(),
		lockStore:   NewMockLockStore(),
		tracking:    NewMockTrackingIssuer(),
	}

	tx := NewMockTxRunner(f.tripRepo, f.historyRepo)
	recorder := service.NewHistoryRecorder(f.historyRepo)
	rates := service.NewRateService(f.rateRepo, nil)
	linkedLegs := service.NewLinkedLegSyncService(f.tripRepo, recorder)

	f.svc = service.NewAssignmentService(
		tx, f.tripRepo, f.driverRepo, rates, recorder,
		linkedLegs, nil, f.tracking, f.lockStore,
	)
	return f
}

// ──────────────────────────────────────────────
// DRIVER ASSIGNMENT
// ──────────────────────────────────────────────

func TestAssign_NewAssignmentSchedulesTrip(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		TripNumber:    "100A",
		Status:        domain.TripStatusPending,
		ServiceLevel:  domain.ServiceLevelAmbulatory,
		DistanceMiles: 14,
	})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Sam Lee"})
	f.rateRepo.SetDriverRateTable(ambulatoryTiers())

	trip, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:    "trip-1",
		DriverID:  "driver-1",
		VehicleID: "veh-1",
		Actor:     service.Actor{ID: "disp-1", Name: "Dana"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", trip.Status)
	}
	if trip.DriverID != "driver-1" || trip.VehicleID != "veh-1" {
		t.Errorf("expected driver and vehicle set, got %q/%q", trip.DriverID, trip.VehicleID)
	}
	if trip.DriverPayout != 30 {
		t.Errorf("expected payout snapshot 30, got %.2f", trip.DriverPayout)
	}

	if len(f.historyRepo.RecordsOfType("trip-1", domain.ChangeTypeStatusChanged)) != 1 {
		t.Error("expected STATUS_CHANGED record for PENDING -> SCHEDULED")
	}
	if len(f.historyRepo.RecordsOfType("trip-1", domain.ChangeTypeDriverAssigned)) != 1 {
		t.Error("expected DRIVER_ASSIGNED record")
	}
	if !f.tracking.IssuedFor("trip-1") {
		t.Error("expected tracking link issued")
	}
	if f.lockStore.IsLocked("trip-1") {
		t.Error("expected assignment lock released")
	}
}

func TestAssign_ReassignmentKeepsStatus(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		TripNumber:    "100A",
		Status:        domain.TripStatusEnRoute,
		DriverID:      "driver-1",
		DriverPayout:  30,
		ServiceLevel:  domain.ServiceLevelAmbulatory,
		DistanceMiles: 14,
	})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Name: "Pat Kim"})
	f.rateRepo.SetDriverRateTable(&domain.DriverRateTable{
		DriverID: "driver-2",
		Tiers: []domain.RateTier{
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 0, BaseAmount: 25, PerMileRate: 1},
		},
	})

	trip, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:   "trip-1",
		DriverID: "driver-2",
		Actor:    service.Actor{ID: "disp-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusEnRoute {
		t.Errorf("reassignment must not regress status, got %s", trip.Status)
	}
	if trip.DriverID != "driver-2" {
		t.Errorf("expected driver swapped, got %s", trip.DriverID)
	}
	// Payout recomputed for the new driver: 25 base + 14 miles at 1.00.
	if trip.DriverPayout != 39 {
		t.Errorf("expected payout 39 for new driver, got %.2f", trip.DriverPayout)
	}

	if len(f.historyRepo.RecordsOfType("trip-1", domain.ChangeTypeDriverReassigned)) != 1 {
		t.Error("expected DRIVER_REASSIGNED record")
	}
	if len(f.historyRepo.RecordsOfType("trip-1", domain.ChangeTypeStatusChanged)) != 0 {
		t.Error("reassignment must not write a STATUS_CHANGED record")
	}
}

func TestAssign_MissingRateTableDegradesToZeroPayout(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		TripNumber:    "100A",
		Status:        domain.TripStatusPending,
		ServiceLevel:  domain.ServiceLevelWheelchair,
		DistanceMiles: 5,
	})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Sam Lee"})

	trip, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Actor:    service.Actor{ID: "disp-1"},
	})
	if err != nil {
		t.Fatalf("assignment must succeed with zero payout: %v", err)
	}
	if trip.DriverPayout != 0 {
		t.Errorf("expected zero payout, got %.2f", trip.DriverPayout)
	}
	if trip.Status != domain.TripStatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", trip.Status)
	}
}

func TestAssign_MalformedRateTableAborts(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		TripNumber:    "100A",
		Status:        domain.TripStatusPending,
		ServiceLevel:  domain.ServiceLevelAmbulatory,
		DistanceMiles: 12,
	})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Sam Lee"})
	// Gap between tiers: 10-15 miles is uncovered.
	f.rateRepo.SetDriverRateTable(&domain.DriverRateTable{
		DriverID: "driver-1",
		Tiers: []domain.RateTier{
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20},
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 15, ToMiles: 0, BaseAmount: 30, PerMileRate: 2},
		},
	})

	_, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Actor:    service.Actor{ID: "disp-1"},
	})

	var confErr *service.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	stored := f.tripRepo.GetTrip("trip-1")
	if stored.DriverID != "" || stored.Status != domain.TripStatusPending {
		t.Error("aborted assignment must leave the trip untouched")
	}
	if f.historyRepo.CountRecords() != 0 {
		t.Errorf("expected no history records, got %d", f.historyRepo.CountRecords())
	}
}

func TestAssign_ConcurrentAssignmentRejected(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{ID: "trip-1", Status: domain.TripStatusPending})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1"})
	f.lockStore.ForceAcquireFailure = true

	_, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Actor:    service.Actor{ID: "disp-1"},
	})
	if !errors.Is(err, service.ErrTripBeingAssigned) {
		t.Fatalf("expected ErrTripBeingAssigned, got %v", err)
	}
	if f.tripRepo.UpdateCallCount != 0 {
		t.Error("expected no trip write while lock is contended")
	}
}

func TestAssign_PropagatesDriverToReturnLeg(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:           "trip-a",
		TripNumber:   "55A",
		Status:       domain.TripStatusPending,
		ServiceLevel: domain.ServiceLevelAmbulatory,
		LinkedTripID: "trip-b",
	})
	f.tripRepo.AddTrip(&domain.Trip{
		ID:           "trip-b",
		TripNumber:   "55B",
		Status:       domain.TripStatusPending,
		ServiceLevel: domain.ServiceLevelAmbulatory,
		IsReturnTrip: true,
		LinkedTripID: "trip-a",
	})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Sam Lee"})

	_, err := f.svc.Assign(context.Background(), service.AssignRequest{
		TripID:    "trip-a",
		DriverID:  "driver-1",
		VehicleID: "veh-7",
		Actor:     service.Actor{ID: "disp-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	returnLeg := f.tripRepo.GetTrip("trip-b")
	if returnLeg.DriverID != "driver-1" {
		t.Errorf("expected driver propagated to return leg, got %q", returnLeg.DriverID)
	}
	if returnLeg.VehicleID != "veh-7" {
		t.Errorf("expected vehicle propagated to return leg, got %q", returnLeg.VehicleID)
	}
	// The return leg keeps its own status; assignment state does not mirror.
	if returnLeg.Status != domain.TripStatusPending {
		t.Errorf("return leg status must not change, got %s", returnLeg.Status)
	}
}

func TestAssign_ValidatesIDs(t *testing.T) {
	t.Parallel()

	f := newAssignmentFixture()

	if _, err := f.svc.Assign(context.Background(), service.AssignRequest{DriverID: "driver-1"}); !errors.Is(err, service.ErrInvalidTripID) {
		t.Errorf("expected ErrInvalidTripID, got %v", err)
	}
	if _, err := f.svc.Assign(context.Background(), service.AssignRequest{TripID: "trip-1"}); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}
