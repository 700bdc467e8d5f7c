package domain

// RateTier is one mileage band of a driver's rate table.
//
// A distance d falls in the tier when FromMiles <= d < ToMiles (half-open, so
// a distance exactly at ToMiles belongs to the next tier). ToMiles == 0 marks
// the last, unbounded tier. The amount for a matching tier is
// BaseAmount + PerMileRate*(d - FromMiles); band tiers typically carry a flat
// BaseAmount with PerMileRate 0, the unbounded tier carries the per-excess-mile
// rate on top of the base allotment.
type RateTier struct {
	ServiceLevel ServiceLevel
	FromMiles    float64
	ToMiles      float64
	BaseAmount   float64
	PerMileRate  float64
}

// Unbounded reports whether the tier has no upper mileage bound.
func (t RateTier) Unbounded() bool {
	return t.ToMiles <= 0
}

// Contains reports whether the given distance falls in this tier.
func (t RateTier) Contains(distanceMiles float64) bool {
	if distanceMiles < t.FromMiles {
		return false
	}
	return t.Unbounded() || distanceMiles < t.ToMiles
}

// DriverRateTable holds the ordered mileage tiers for one driver.
type DriverRateTable struct {
	DriverID string
	Tiers    []RateTier
}

// FacilityRate is a flat per-service-level rate billed to a facility or
// clinic, independent of distance.
type FacilityRate struct {
	ID           string
	FacilityID   string
	ServiceLevel ServiceLevel
	Amount       float64
}

// PayoutBreakdown explains how a driver payout was derived from a rate table.
type PayoutBreakdown struct {
	ServiceLevel  ServiceLevel
	DistanceMiles float64
	TierFromMiles float64
	TierToMiles   float64
	BaseAmount    float64
	ExcessMiles   float64
	PerMileRate   float64
	ExcessAmount  float64
	Total         float64
}
