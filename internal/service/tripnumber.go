package service

import (
	"context"
	"strconv"
	"strings"

	"nemt/internal/repository"
)

const (
	outboundLegSuffix = "A"
	returnLegSuffix   = "B"
)

// TripNumberAllocator mints human-readable trip numbers: a store-allocated
// sequence value suffixed "A" for the outbound leg or "B" for a return leg.
type TripNumberAllocator struct {
	seq repository.TripSequence
}

// NewTripNumberAllocator creates a new TripNumberAllocator.
func NewTripNumberAllocator(seq repository.TripSequence) *TripNumberAllocator {
	return &TripNumberAllocator{seq: seq}
}

// Allocate returns a new trip number for a single leg.
func (a *TripNumberAllocator) Allocate(ctx context.Context, isReturnLeg bool) (string, error) {
	next, err := a.seq.Next(ctx)
	if err != nil {
		return "", err
	}

	suffix := outboundLegSuffix
	if isReturnLeg {
		suffix = returnLegSuffix
	}
	return formatTripNumber(next, suffix), nil
}

// AllocatePair returns numbers for both legs of a round trip, sharing one
// sequence value.
func (a *TripNumberAllocator) AllocatePair(ctx context.Context) (outbound, ret string, err error) {
	next, err := a.seq.Next(ctx)
	if err != nil {
		return "", "", err
	}
	return formatTripNumber(next, outboundLegSuffix), formatTripNumber(next, returnLegSuffix), nil
}

func formatTripNumber(seq int64, suffix string) string {
	return strconv.FormatInt(seq, 10) + suffix
}

// IsOutboundLeg reports whether a trip number belongs to an outbound leg.
func IsOutboundLeg(tripNumber string) bool {
	return strings.HasSuffix(tripNumber, outboundLegSuffix)
}

// ReturnNumberFor converts an outbound trip number to its paired return
// number ("123A" -> "123B"). ok is false when the input is not an outbound
// number.
func ReturnNumberFor(tripNumber string) (string, bool) {
	if !IsOutboundLeg(tripNumber) {
		return "", false
	}
	return strings.TrimSuffix(tripNumber, outboundLegSuffix) + returnLegSuffix, true
}
