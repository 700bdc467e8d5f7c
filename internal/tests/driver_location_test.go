package tests

import (
	"context"
	"errors"
	"testing"

	"nemt/internal/domain"
	"nemt/internal/service"
)

// ──────────────────────────────────────────────
// DRIVER REGISTRATION AND LOCATION PINGS
// ──────────────────────────────────────────────

func TestDriverRegister(t *testing.T) {
	t.Parallel()

	driverRepo := NewMockDriverRepository()
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	driver, err := svc.Register(context.Background(), service.RegisterRequest{
		Name:  "Sam Lee",
		Phone: "555-0101",
		Actor: service.Actor{ID: "disp-1", OrganizationID: "org-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.ID == "" {
		t.Error("expected generated driver ID")
	}
	if driver.OrganizationID != "org-1" {
		t.Errorf("expected organization from actor, got %q", driver.OrganizationID)
	}
	if driver.Status != domain.DriverStatusActive {
		t.Errorf("expected ACTIVE status, got %s", driver.Status)
	}
	if driverRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 create call, got %d", driverRepo.CreateCallCount)
	}
}

func TestDriverUpdateLocation_RejectsOutOfRangeCoordinates(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	svc := service.NewDriverService(NewMockDriverRepository(), locationStore)

	err := svc.UpdateLocation(context.Background(), "driver-1", domain.GeoPoint{Latitude: 123, Longitude: 0})
	if !errors.Is(err, service.ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation for out-of-range latitude, got %v", err)
	}
	if locationStore.UpdateLocationCallCount != 0 {
		t.Error("invalid ping must not reach the store")
	}
}

func TestDriverLocation_Roundtrip(t *testing.T) {
	t.Parallel()

	locationStore := NewMockLocationStore()
	svc := service.NewDriverService(NewMockDriverRepository(), locationStore)

	if err := svc.UpdateLocation(context.Background(), "driver-1", domain.GeoPoint{Latitude: 40.71, Longitude: -74.0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	point, err := svc.LastKnownLocation(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point == nil || point.Latitude != 40.71 || point.Longitude != -74.0 {
		t.Errorf("expected last ping back, got %+v", point)
	}
}

func TestDriverLocation_UnknownDriverHasNoLocation(t *testing.T) {
	t.Parallel()

	svc := service.NewDriverService(NewMockDriverRepository(), NewMockLocationStore())

	point, err := svc.LastKnownLocation(context.Background(), "driver-unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point != nil {
		t.Errorf("expected nil location for unknown driver, got %+v", point)
	}
}
