package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nemt/internal/domain"
	"nemt/internal/service"
)

// RateHandler handles HTTP requests for rate tables.
type RateHandler struct {
	rateService *service.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateService *service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// RateTierPayload is one mileage tier on the wire.
type RateTierPayload struct {
	ServiceLevel string  `json:"service_level" binding:"required"`
	FromMiles    float64 `json:"from_miles"`
	ToMiles      float64 `json:"to_miles"`
	BaseAmount   float64 `json:"base_amount"`
	PerMileRate  float64 `json:"per_mile_rate"`
}

// GetDriverRates handles GET /v1/drivers/:id/rates.
func (h *RateHandler) GetDriverRates(c *gin.Context) {
	table, err := h.rateService.DriverRateTable(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	tiers := make([]RateTierPayload, 0)
	if table != nil {
		for _, tier := range table.Tiers {
			tiers = append(tiers, RateTierPayload{
				ServiceLevel: string(tier.ServiceLevel),
				FromMiles:    tier.FromMiles,
				ToMiles:      tier.ToMiles,
				BaseAmount:   tier.BaseAmount,
				PerMileRate:  tier.PerMileRate,
			})
		}
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": c.Param("id"), "tiers": tiers})
}

// PutDriverRates handles PUT /v1/drivers/:id/rates.
func (h *RateHandler) PutDriverRates(c *gin.Context) {
	var req struct {
		Tiers []RateTierPayload `json:"tiers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	table := &domain.DriverRateTable{DriverID: c.Param("id")}
	for _, tier := range req.Tiers {
		table.Tiers = append(table.Tiers, domain.RateTier{
			ServiceLevel: domain.ServiceLevel(tier.ServiceLevel),
			FromMiles:    tier.FromMiles,
			ToMiles:      tier.ToMiles,
			BaseAmount:   tier.BaseAmount,
			PerMileRate:  tier.PerMileRate,
		})
	}

	if err := h.rateService.SaveDriverRateTable(c.Request.Context(), table); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// FacilityRatePayload is one flat facility rate on the wire.
type FacilityRatePayload struct {
	ServiceLevel string  `json:"service_level" binding:"required"`
	Amount       float64 `json:"amount"`
}

// GetFacilityRates handles GET /v1/facilities/:id/rates.
func (h *RateHandler) GetFacilityRates(c *gin.Context) {
	rates, err := h.rateService.FacilityRates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]FacilityRatePayload, 0, len(rates))
	for _, rate := range rates {
		response = append(response, FacilityRatePayload{
			ServiceLevel: string(rate.ServiceLevel),
			Amount:       rate.Amount,
		})
	}

	respondJSON(c, http.StatusOK, gin.H{"facility_id": c.Param("id"), "rates": response})
}

// PutFacilityRates handles PUT /v1/facilities/:id/rates.
func (h *RateHandler) PutFacilityRates(c *gin.Context) {
	var req struct {
		Rates []FacilityRatePayload `json:"rates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	facilityID := c.Param("id")
	rates := make([]domain.FacilityRate, 0, len(req.Rates))
	for _, rate := range req.Rates {
		rates = append(rates, domain.FacilityRate{
			ID:           uuid.New().String(),
			FacilityID:   facilityID,
			ServiceLevel: domain.ServiceLevel(rate.ServiceLevel),
			Amount:       rate.Amount,
		})
	}

	if err := h.rateService.SaveFacilityRates(c.Request.Context(), facilityID, rates); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
