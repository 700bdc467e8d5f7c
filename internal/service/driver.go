package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nemt/internal/domain"
	"nemt/internal/redis"
	"nemt/internal/repository"
)

// DriverService handles driver registration and location pings.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository, locationStore redis.LocationStoreInterface) *DriverService {
	return &DriverService{driverRepo: driverRepo, locationStore: locationStore}
}

// RegisterRequest contains the parameters for registering a driver.
type RegisterRequest struct {
	Name  string
	Phone string
	Actor Actor
}

// Register adds a new driver.
func (s *DriverService) Register(ctx context.Context, req RegisterRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, ErrInvalidDriverID
	}

	driver := &domain.Driver{
		ID:             uuid.New().String(),
		OrganizationID: req.Actor.OrganizationID,
		Name:           req.Name,
		Phone:          req.Phone,
		Status:         domain.DriverStatusActive,
		CreatedAt:      time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// GetAllDrivers retrieves all drivers for an organization.
func (s *DriverService) GetAllDrivers(ctx context.Context, organizationID string) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx, organizationID)
}

// UpdateLocation records a driver app location ping. The latest position
// backs the tracking-link surface.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, point domain.GeoPoint) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if point.Latitude < -90 || point.Latitude > 90 || point.Longitude < -180 || point.Longitude > 180 {
		return ErrMissingLocation
	}

	return s.locationStore.UpdateLocation(ctx, driverID, point.Latitude, point.Longitude)
}

// LastKnownLocation returns a driver's most recent position, nil if unknown.
func (s *DriverService) LastKnownLocation(ctx context.Context, driverID string) (*domain.GeoPoint, error) {
	lat, lng, ok, err := s.locationStore.GetLocation(ctx, driverID)
	if err != nil || !ok {
		return nil, err
	}
	return &domain.GeoPoint{Latitude: lat, Longitude: lng}, nil
}
