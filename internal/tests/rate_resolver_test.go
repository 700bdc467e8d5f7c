package tests

import (
	"context"
	"errors"
	"testing"

	"nemt/internal/domain"
	"nemt/internal/service"
)

// ──────────────────────────────────────────────
// DRIVER PAYOUT RESOLUTION
// ──────────────────────────────────────────────

func ambulatoryTiers() *domain.DriverRateTable {
	return &domain.DriverRateTable{
		DriverID: "driver-1",
		Tiers: []domain.RateTier{
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20, PerMileRate: 0},
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 10, ToMiles: 0, BaseAmount: 20, PerMileRate: 2.5},
		},
	}
}

func TestResolvePayout_BaseTier(t *testing.T) {
	t.Parallel()

	amount, breakdown, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevelAmbulatory, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 20 {
		t.Errorf("expected payout 20, got %.2f", amount)
	}
	if breakdown == nil || breakdown.ExcessMiles != 0 {
		t.Errorf("expected no excess miles, got %+v", breakdown)
	}
}

func TestResolvePayout_ExcessMileage(t *testing.T) {
	t.Parallel()

	// 14 miles: 20 base + 4 excess miles at 2.50.
	amount, breakdown, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevelAmbulatory, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 30 {
		t.Errorf("expected payout 30, got %.2f", amount)
	}
	if breakdown.ExcessMiles != 4 {
		t.Errorf("expected 4 excess miles, got %.2f", breakdown.ExcessMiles)
	}
	if breakdown.ExcessAmount != 10 {
		t.Errorf("expected excess amount 10, got %.2f", breakdown.ExcessAmount)
	}
}

func TestResolvePayout_BoundaryBelongsToNextTier(t *testing.T) {
	t.Parallel()

	// Exactly 10 miles falls in the second tier (half-open intervals), with
	// zero excess over the tier's floor.
	amount, breakdown, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevelAmbulatory, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 20 {
		t.Errorf("expected payout 20 at tier boundary, got %.2f", amount)
	}
	if breakdown.TierFromMiles != 10 {
		t.Errorf("expected second tier (from 10), got tier from %.1f", breakdown.TierFromMiles)
	}
}

func TestResolvePayout_NoTableResolvesToZero(t *testing.T) {
	t.Parallel()

	amount, breakdown, err := service.ResolvePayout(nil, domain.ServiceLevelWheelchair, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 0 {
		t.Errorf("expected zero payout without configuration, got %.2f", amount)
	}
	if breakdown != nil {
		t.Error("expected no breakdown without configuration")
	}
}

func TestResolvePayout_NoTiersForLevelResolvesToZero(t *testing.T) {
	t.Parallel()

	// Table exists but only covers AMBULATORY.
	amount, _, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevelStretcher, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 0 {
		t.Errorf("expected zero payout for unconfigured level, got %.2f", amount)
	}
}

func TestResolvePayout_GapInTiersIsConfigurationError(t *testing.T) {
	t.Parallel()

	table := &domain.DriverRateTable{
		DriverID: "driver-1",
		Tiers: []domain.RateTier{
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20},
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 15, ToMiles: 0, BaseAmount: 30, PerMileRate: 2},
		},
	}

	_, _, err := service.ResolvePayout(table, domain.ServiceLevelAmbulatory, 12)
	var confErr *service.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError for tier gap, got %v", err)
	}
}

func TestResolvePayout_UnknownServiceLevel(t *testing.T) {
	t.Parallel()

	_, _, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevel("GURNEY"), 5)
	var confErr *service.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError for unknown level, got %v", err)
	}
}

func TestResolvePayout_NegativeDistance(t *testing.T) {
	t.Parallel()

	_, _, err := service.ResolvePayout(ambulatoryTiers(), domain.ServiceLevelAmbulatory, -1)
	var confErr *service.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError for negative distance, got %v", err)
	}
}

// ──────────────────────────────────────────────
// FACILITY FARE RESOLUTION
// ──────────────────────────────────────────────

func TestResolveFare_FlatPerServiceLevel(t *testing.T) {
	t.Parallel()

	rates := []domain.FacilityRate{
		{FacilityID: "fac-1", ServiceLevel: domain.ServiceLevelAmbulatory, Amount: 45},
		{FacilityID: "fac-1", ServiceLevel: domain.ServiceLevelWheelchair, Amount: 70},
	}

	// Flat fare: distance does not change the amount.
	for _, distance := range []float64{2, 25, 100} {
		fare, err := service.ResolveFare(rates, domain.ServiceLevelWheelchair, distance)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fare != 70 {
			t.Errorf("expected flat fare 70 at %.0f miles, got %.2f", distance, fare)
		}
	}
}

func TestResolveFare_MissingConfigurationResolvesToZero(t *testing.T) {
	t.Parallel()

	fare, err := service.ResolveFare(nil, domain.ServiceLevelAmbulatory, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fare != 0 {
		t.Errorf("expected zero fare without configuration, got %.2f", fare)
	}
}

// ──────────────────────────────────────────────
// TIER VALIDATION
// ──────────────────────────────────────────────

func TestValidateTiers_RejectsNonContiguous(t *testing.T) {
	t.Parallel()

	err := service.ValidateTiers([]domain.RateTier{
		{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20},
		{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 12, ToMiles: 0, BaseAmount: 20, PerMileRate: 2},
	})
	if err == nil {
		t.Fatal("expected error for non-contiguous tiers")
	}
}

func TestValidateTiers_RejectsBoundedLastTier(t *testing.T) {
	t.Parallel()

	err := service.ValidateTiers([]domain.RateTier{
		{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20},
	})
	if err == nil {
		t.Fatal("expected error when last tier is bounded")
	}
}

func TestValidateTiers_AcceptsWellFormedTable(t *testing.T) {
	t.Parallel()

	err := service.ValidateTiers(ambulatoryTiers().Tiers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTiers_AcceptsUnorderedSubmission(t *testing.T) {
	t.Parallel()

	// Same intervals as a well-formed table, submitted out of order.
	err := service.ValidateTiers([]domain.RateTier{
		{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 10, ToMiles: 0, BaseAmount: 20, PerMileRate: 2.5},
		{ServiceLevel: domain.ServiceLevelWheelchair, FromMiles: 5, ToMiles: 0, BaseAmount: 40, PerMileRate: 3},
		{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 0, ToMiles: 10, BaseAmount: 20},
		{ServiceLevel: domain.ServiceLevelWheelchair, FromMiles: 0, ToMiles: 5, BaseAmount: 35},
	})
	if err != nil {
		t.Fatalf("tier order in the payload must not matter: %v", err)
	}
}

// ──────────────────────────────────────────────
// RATE SERVICE (repo-backed, no cache)
// ──────────────────────────────────────────────

func TestRateService_PayoutForDriverReadsRepo(t *testing.T) {
	t.Parallel()

	rateRepo := NewMockRateRepository()
	rateRepo.SetDriverRateTable(ambulatoryTiers())

	rateService := service.NewRateService(rateRepo, nil)

	payout, _, err := rateService.PayoutForDriver(context.Background(), "driver-1", domain.ServiceLevelAmbulatory, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payout != 30 {
		t.Errorf("expected payout 30, got %.2f", payout)
	}
	if rateRepo.GetDriverTableCallCount != 1 {
		t.Errorf("expected 1 repo read, got %d", rateRepo.GetDriverTableCallCount)
	}
}

func TestRateService_SaveDriverRateTableValidates(t *testing.T) {
	t.Parallel()

	rateRepo := NewMockRateRepository()
	rateService := service.NewRateService(rateRepo, nil)

	err := rateService.SaveDriverRateTable(context.Background(), &domain.DriverRateTable{
		DriverID: "driver-1",
		Tiers: []domain.RateTier{
			{ServiceLevel: domain.ServiceLevelAmbulatory, FromMiles: 5, ToMiles: 0, BaseAmount: 20},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for tiers not starting at zero")
	}
}

func TestRateService_FareForEmptyBillingPartyIsZero(t *testing.T) {
	t.Parallel()

	rateService := service.NewRateService(NewMockRateRepository(), nil)

	fare, err := rateService.FareForFacility(context.Background(), "", domain.ServiceLevelAmbulatory, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fare != 0 {
		t.Errorf("expected zero fare with no billing party, got %.2f", fare)
	}
}
