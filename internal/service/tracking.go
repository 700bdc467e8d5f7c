package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nemt/internal/redis"
)

const trackingLinkTTL = 24 * time.Hour

// TrackingService issues shareable tracking links for assigned trips. Tokens
// live in Redis with a TTL; the public lookup endpoint resolves them back to
// a trip.
type TrackingService struct {
	store   *redis.TrackingStore
	baseURL string
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(store *redis.TrackingStore, baseURL string) *TrackingService {
	return &TrackingService{store: store, baseURL: baseURL}
}

// IssueTrackingLink mints a token for the trip and returns the public URL.
func (s *TrackingService) IssueTrackingLink(ctx context.Context, tripID string) (string, error) {
	token := uuid.New().String()

	if err := s.store.SaveToken(ctx, token, tripID, trackingLinkTTL); err != nil {
		return "", err
	}

	return s.baseURL + "/v1/tracking/" + token, nil
}

// ResolveToken returns the trip ID behind a tracking token.
func (s *TrackingService) ResolveToken(ctx context.Context, token string) (string, error) {
	tripID, err := s.store.LookupToken(ctx, token)
	if err != nil {
		return "", err
	}
	if tripID == "" {
		return "", ErrInvalidTrackingToken
	}
	return tripID, nil
}

// Ensure TrackingService implements TrackingIssuer.
var _ TrackingIssuer = (*TrackingService)(nil)
