package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nemt/internal/service"
)

// TrackingHandler serves the public tracking-link lookup.
type TrackingHandler struct {
	trackingService *service.TrackingService
	tripService     *service.TripService
	driverService   *service.DriverService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(
	trackingService *service.TrackingService,
	tripService *service.TripService,
	driverService *service.DriverService,
) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		tripService:     tripService,
		driverService:   driverService,
	}
}

// TrackingResponse is the public view behind a tracking link: trip progress
// and the driver's last known position, nothing more.
type TrackingResponse struct {
	TripNumber        string   `json:"trip_number"`
	Status            string   `json:"status"`
	ScheduledPickupAt string   `json:"scheduled_pickup_at,omitempty"`
	DriverLatitude    *float64 `json:"driver_latitude,omitempty"`
	DriverLongitude   *float64 `json:"driver_longitude,omitempty"`
}

// Track handles GET /v1/tracking/:token.
func (h *TrackingHandler) Track(c *gin.Context) {
	tripID, err := h.trackingService.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := TrackingResponse{
		TripNumber:        trip.TripNumber,
		Status:            string(trip.Status),
		ScheduledPickupAt: formatTimePtr(trip.ScheduledPickupAt),
	}

	if trip.DriverID != "" {
		if point, err := h.driverService.LastKnownLocation(c.Request.Context(), trip.DriverID); err == nil && point != nil {
			response.DriverLatitude = &point.Latitude
			response.DriverLongitude = &point.Longitude
		}
	}

	respondJSON(c, http.StatusOK, response)
}
