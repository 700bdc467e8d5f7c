package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nemt/internal/domain"
	"nemt/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status"`
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:     driver.ID,
		Name:   driver.Name,
		Phone:  driver.Phone,
		Status: string(driver.Status),
	}
}

// registerDriverRequest is the payload for POST /v1/drivers/register.
type registerDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// Register handles POST /v1/drivers/register.
func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), service.RegisterRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Actor: actorFromContext(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetAll handles GET /v1/drivers.
func (h *DriverHandler) GetAll(c *gin.Context) {
	actor := actorFromContext(c)

	drivers, err := h.driverService.GetAllDrivers(c.Request.Context(), actor.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, toDriverResponse(driver))
	}

	respondJSON(c, http.StatusOK, response)
}

// updateLocationRequest is the payload for POST /v1/drivers/:id/location.
type updateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// UpdateLocation handles POST /v1/drivers/:id/location.
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), c.Param("id"), domain.GeoPoint{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
