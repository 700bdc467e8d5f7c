package service

import (
	"context"
	"fmt"
	"sort"

	"nemt/internal/domain"
	"nemt/internal/redis"
	"nemt/internal/repository"
)

// ResolveFare resolves the flat per-service-level rate a facility or clinic
// is billed for a trip. Distance is validated but does not affect the amount;
// facilities bill a flat fee per service level. A missing rate configuration
// resolves to zero, which callers must surface as "not configured" rather
// than a free ride.
func ResolveFare(rates []domain.FacilityRate, level domain.ServiceLevel, distanceMiles float64) (float64, error) {
	if !domain.KnownServiceLevel(level) {
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown service level %q", level)}
	}
	if distanceMiles < 0 {
		return 0, &ConfigurationError{Reason: "distance must not be negative"}
	}

	for _, rate := range rates {
		if rate.ServiceLevel == level {
			return rate.Amount, nil
		}
	}

	return 0, nil
}

// ResolvePayout resolves a driver payout from a tiered mileage rate table.
// Tier intervals are half-open: a distance exactly at a tier's upper bound
// belongs to the next tier. A nil table resolves to a zero payout with no
// breakdown.
func ResolvePayout(table *domain.DriverRateTable, level domain.ServiceLevel, distanceMiles float64) (float64, *domain.PayoutBreakdown, error) {
	if !domain.KnownServiceLevel(level) {
		return 0, nil, &ConfigurationError{Reason: fmt.Sprintf("unknown service level %q", level)}
	}
	if distanceMiles < 0 {
		return 0, nil, &ConfigurationError{Reason: "distance must not be negative"}
	}

	if table == nil {
		return 0, nil, nil
	}

	var tiers []domain.RateTier
	for _, tier := range table.Tiers {
		if tier.ServiceLevel == level {
			tiers = append(tiers, tier)
		}
	}
	if len(tiers) == 0 {
		return 0, nil, nil
	}

	for _, tier := range tiers {
		if !tier.Contains(distanceMiles) {
			continue
		}

		excess := 0.0
		if tier.PerMileRate > 0 {
			excess = distanceMiles - tier.FromMiles
		}
		amount := tier.BaseAmount + tier.PerMileRate*excess

		return amount, &domain.PayoutBreakdown{
			ServiceLevel:  level,
			DistanceMiles: distanceMiles,
			TierFromMiles: tier.FromMiles,
			TierToMiles:   tier.ToMiles,
			BaseAmount:    tier.BaseAmount,
			ExcessMiles:   excess,
			PerMileRate:   tier.PerMileRate,
			ExcessAmount:  tier.PerMileRate * excess,
			Total:         amount,
		}, nil
	}

	// Tiers exist for this level but none covers the distance: the table has
	// a gap or no unbounded last tier.
	return 0, nil, &ConfigurationError{
		Reason: fmt.Sprintf("no %s tier covers %.1f miles", level, distanceMiles),
	}
}

// ValidateTiers checks that the tiers for each service level are contiguous,
// non-overlapping, and end in a single unbounded tier. Tables are validated
// on write so the resolver can trust its input.
func ValidateTiers(tiers []domain.RateTier) error {
	byLevel := make(map[domain.ServiceLevel][]domain.RateTier)
	for _, tier := range tiers {
		if !domain.KnownServiceLevel(tier.ServiceLevel) {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown service level %q", tier.ServiceLevel)}
		}
		if tier.FromMiles < 0 {
			return &ConfigurationError{Reason: "tier from_miles must not be negative"}
		}
		if !tier.Unbounded() && tier.ToMiles <= tier.FromMiles {
			return &ConfigurationError{Reason: "tier to_miles must exceed from_miles"}
		}
		byLevel[tier.ServiceLevel] = append(byLevel[tier.ServiceLevel], tier)
	}

	for level, levelTiers := range byLevel {
		// Payloads may arrive in any order; contiguity is a property of the
		// intervals, not of the submission.
		sort.Slice(levelTiers, func(i, j int) bool {
			return levelTiers[i].FromMiles < levelTiers[j].FromMiles
		})

		expectedFrom := 0.0
		for i, tier := range levelTiers {
			if tier.FromMiles != expectedFrom {
				return &ConfigurationError{Reason: fmt.Sprintf("%s tiers are not contiguous at %.1f miles", level, tier.FromMiles)}
			}
			if tier.Unbounded() {
				if i != len(levelTiers)-1 {
					return &ConfigurationError{Reason: fmt.Sprintf("%s has an unbounded tier before the last", level)}
				}
				break
			}
			expectedFrom = tier.ToMiles
			if i == len(levelTiers)-1 {
				return &ConfigurationError{Reason: fmt.Sprintf("%s last tier must be unbounded", level)}
			}
		}
	}

	return nil
}

// RateService loads rate configuration, caching read-mostly tables in Redis
// and invalidating on edits.
type RateService struct {
	rateRepo repository.RateRepository
	cache    *redis.CacheStore
}

// NewRateService creates a new RateService.
func NewRateService(rateRepo repository.RateRepository, cache *redis.CacheStore) *RateService {
	return &RateService{rateRepo: rateRepo, cache: cache}
}

// PayoutForDriver resolves a driver payout, reading the rate table through
// the cache.
func (s *RateService) PayoutForDriver(ctx context.Context, driverID string, level domain.ServiceLevel, distanceMiles float64) (float64, *domain.PayoutBreakdown, error) {
	table, err := s.driverRateTable(ctx, driverID)
	if err != nil {
		return 0, nil, err
	}
	return ResolvePayout(table, level, distanceMiles)
}

// FareForFacility resolves the billed fare for a facility or clinic.
func (s *RateService) FareForFacility(ctx context.Context, facilityID string, level domain.ServiceLevel, distanceMiles float64) (float64, error) {
	if facilityID == "" {
		return 0, nil
	}

	rates, err := s.rateRepo.GetFacilityRates(ctx, facilityID)
	if err != nil {
		return 0, err
	}
	return ResolveFare(rates, level, distanceMiles)
}

// DriverRateTable returns the driver's current tiers, nil if none configured.
func (s *RateService) DriverRateTable(ctx context.Context, driverID string) (*domain.DriverRateTable, error) {
	return s.driverRateTable(ctx, driverID)
}

// FacilityRates returns the facility's flat rates.
func (s *RateService) FacilityRates(ctx context.Context, facilityID string) ([]domain.FacilityRate, error) {
	return s.rateRepo.GetFacilityRates(ctx, facilityID)
}

// SaveDriverRateTable validates and stores a driver's tiers, then invalidates
// the cached copy so subsequent assignments see the new rates.
func (s *RateService) SaveDriverRateTable(ctx context.Context, table *domain.DriverRateTable) error {
	if table.DriverID == "" {
		return ErrInvalidDriverID
	}
	if err := ValidateTiers(table.Tiers); err != nil {
		return err
	}

	if err := s.rateRepo.ReplaceDriverRateTable(ctx, table); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateDriverRateTable(ctx, table.DriverID)
	}

	return nil
}

// SaveFacilityRates validates and stores a facility's flat rates.
func (s *RateService) SaveFacilityRates(ctx context.Context, facilityID string, rates []domain.FacilityRate) error {
	for _, rate := range rates {
		if !domain.KnownServiceLevel(rate.ServiceLevel) {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown service level %q", rate.ServiceLevel)}
		}
	}

	return s.rateRepo.ReplaceFacilityRates(ctx, facilityID, rates)
}

func (s *RateService) driverRateTable(ctx context.Context, driverID string) (*domain.DriverRateTable, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetDriverRateTable(ctx, driverID); err == nil && cached != nil {
			return cachedToRateTable(cached), nil
		}
	}

	table, err := s.rateRepo.GetDriverRateTable(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && table != nil {
		_ = s.cache.SetDriverRateTable(ctx, rateTableToCached(table))
	}

	return table, nil
}

func cachedToRateTable(c *redis.CachedRateTable) *domain.DriverRateTable {
	table := &domain.DriverRateTable{DriverID: c.DriverID}
	for _, tier := range c.Tiers {
		table.Tiers = append(table.Tiers, domain.RateTier{
			ServiceLevel: domain.ServiceLevel(tier.ServiceLevel),
			FromMiles:    tier.FromMiles,
			ToMiles:      tier.ToMiles,
			BaseAmount:   tier.BaseAmount,
			PerMileRate:  tier.PerMileRate,
		})
	}
	return table
}

func rateTableToCached(table *domain.DriverRateTable) *redis.CachedRateTable {
	cached := &redis.CachedRateTable{DriverID: table.DriverID}
	for _, tier := range table.Tiers {
		cached.Tiers = append(cached.Tiers, redis.CachedRateTier{
			ServiceLevel: string(tier.ServiceLevel),
			FromMiles:    tier.FromMiles,
			ToMiles:      tier.ToMiles,
			BaseAmount:   tier.BaseAmount,
			PerMileRate:  tier.PerMileRate,
		})
	}
	return cached
}
