package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nemt/internal/domain"
	"nemt/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService      *service.TripService
	lifecycleService *service.TripLifecycleService
	assignService    *service.AssignmentService
	history          *service.HistoryRecorder
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(
	tripService *service.TripService,
	lifecycleService *service.TripLifecycleService,
	assignService *service.AssignmentService,
	history *service.HistoryRecorder,
) *TripHandler {
	return &TripHandler{
		tripService:      tripService,
		lifecycleService: lifecycleService,
		assignService:    assignService,
		history:          history,
	}
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID                 string  `json:"id"`
	TripNumber         string  `json:"trip_number"`
	PatientID          string  `json:"patient_id,omitempty"`
	PassengerName      string  `json:"passenger_name"`
	PassengerPhone     string  `json:"passenger_phone,omitempty"`
	PassengerEmail     string  `json:"passenger_email,omitempty"`
	DriverID           string  `json:"driver_id,omitempty"`
	VehicleID          string  `json:"vehicle_id,omitempty"`
	FacilityID         string  `json:"facility_id,omitempty"`
	ClinicID           string  `json:"clinic_id,omitempty"`
	PickupAddress      string  `json:"pickup_address"`
	PickupCity         string  `json:"pickup_city,omitempty"`
	PickupState        string  `json:"pickup_state,omitempty"`
	PickupZip          string  `json:"pickup_zip,omitempty"`
	DropoffAddress     string  `json:"dropoff_address"`
	DropoffCity        string  `json:"dropoff_city,omitempty"`
	DropoffState       string  `json:"dropoff_state,omitempty"`
	DropoffZip         string  `json:"dropoff_zip,omitempty"`
	ScheduledPickupAt  string  `json:"scheduled_pickup_at,omitempty"`
	AppointmentAt      string  `json:"appointment_at,omitempty"`
	ActualPickupAt     string  `json:"actual_pickup_at,omitempty"`
	ActualDropoffAt    string  `json:"actual_dropoff_at,omitempty"`
	ServiceLevel       string  `json:"service_level"`
	JourneyType        string  `json:"journey_type"`
	IsReturnTrip       bool    `json:"is_return_trip"`
	WillCall           bool    `json:"will_call"`
	LinkedTripID       string  `json:"linked_trip_id,omitempty"`
	DistanceMiles      float64 `json:"distance_miles"`
	Fare               float64 `json:"fare"`
	DriverPayout       float64 `json:"driver_payout"`
	WaitTimeMinutes    int     `json:"wait_time_minutes,omitempty"`
	WaitTimeCharge     float64 `json:"wait_time_charge,omitempty"`
	Status             string  `json:"status"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	Notes              string  `json:"notes,omitempty"`
	Version            int64   `json:"version"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:                 trip.ID,
		TripNumber:         trip.TripNumber,
		PatientID:          trip.PatientID,
		PassengerName:      trip.PassengerName,
		PassengerPhone:     trip.PassengerPhone,
		PassengerEmail:     trip.PassengerEmail,
		DriverID:           trip.DriverID,
		VehicleID:          trip.VehicleID,
		FacilityID:         trip.FacilityID,
		ClinicID:           trip.ClinicID,
		PickupAddress:      trip.PickupAddress,
		PickupCity:         trip.PickupCity,
		PickupState:        trip.PickupState,
		PickupZip:          trip.PickupZip,
		DropoffAddress:     trip.DropoffAddress,
		DropoffCity:        trip.DropoffCity,
		DropoffState:       trip.DropoffState,
		DropoffZip:         trip.DropoffZip,
		ScheduledPickupAt:  formatTimePtr(trip.ScheduledPickupAt),
		AppointmentAt:      formatTimePtr(trip.AppointmentAt),
		ActualPickupAt:     formatTimePtr(trip.ActualPickupAt),
		ActualDropoffAt:    formatTimePtr(trip.ActualDropoffAt),
		ServiceLevel:       string(trip.ServiceLevel),
		JourneyType:        string(trip.JourneyType),
		IsReturnTrip:       trip.IsReturnTrip,
		WillCall:           trip.WillCall,
		LinkedTripID:       trip.LinkedTripID,
		DistanceMiles:      trip.DistanceMiles,
		Fare:               trip.Fare,
		DriverPayout:       trip.DriverPayout,
		WaitTimeMinutes:    trip.WaitTimeMinutes,
		WaitTimeCharge:     trip.WaitTimeCharge,
		Status:             string(trip.Status),
		CancellationReason: trip.CancellationReason,
		Notes:              trip.Notes,
		Version:            trip.Version,
	}
}

func formatTimePtr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// createTripRequest is the payload for POST /v1/trips.
type createTripRequest struct {
	PatientID      string `json:"patient_id"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerPhone string `json:"passenger_phone"`
	PassengerEmail string `json:"passenger_email"`

	FacilityID string `json:"facility_id"`
	ClinicID   string `json:"clinic_id"`

	PickupAddress  string `json:"pickup_address" binding:"required"`
	PickupCity     string `json:"pickup_city"`
	PickupState    string `json:"pickup_state"`
	PickupZip      string `json:"pickup_zip"`
	DropoffAddress string `json:"dropoff_address" binding:"required"`
	DropoffCity    string `json:"dropoff_city"`
	DropoffState   string `json:"dropoff_state"`
	DropoffZip     string `json:"dropoff_zip"`

	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at"`
	AppointmentAt     *time.Time `json:"appointment_at"`
	WillCall          bool       `json:"will_call"`

	ServiceLevel  string  `json:"service_level" binding:"required"`
	JourneyType   string  `json:"journey_type"`
	DistanceMiles float64 `json:"distance_miles"`

	ReturnScheduledPickupAt *time.Time `json:"return_scheduled_pickup_at"`
	ReturnWillCall          bool       `json:"return_will_call"`

	Notes string `json:"notes"`
}

// CreateTrip handles POST /v1/trips.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	journeyType := domain.JourneyType(req.JourneyType)
	if journeyType == "" {
		journeyType = domain.JourneyTypeOneWay
	}

	createReq := service.CreateTripRequest{
		PatientID:      req.PatientID,
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		PassengerEmail: req.PassengerEmail,
		FacilityID:     req.FacilityID,
		ClinicID:       req.ClinicID,
		PickupAddress:  req.PickupAddress,
		PickupCity:     req.PickupCity,
		PickupState:    req.PickupState,
		PickupZip:      req.PickupZip,
		DropoffAddress: req.DropoffAddress,
		DropoffCity:    req.DropoffCity,
		DropoffState:   req.DropoffState,
		DropoffZip:     req.DropoffZip,
		WillCall:       req.WillCall,
		ServiceLevel:   domain.ServiceLevel(req.ServiceLevel),
		JourneyType:    journeyType,
		DistanceMiles:  req.DistanceMiles,
		ReturnWillCall: req.ReturnWillCall,
		Notes:          req.Notes,
		Actor:          actorFromContext(c),
	}
	if req.ScheduledPickupAt != nil {
		createReq.ScheduledPickupAt = *req.ScheduledPickupAt
	}
	if req.AppointmentAt != nil {
		createReq.AppointmentAt = *req.AppointmentAt
	}
	if req.ReturnScheduledPickupAt != nil {
		createReq.ReturnScheduledPickupAt = *req.ReturnScheduledPickupAt
	}

	result, err := h.tripService.CreateTrip(c.Request.Context(), createReq)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"trip": toTripResponse(result.Trip)}
	if result.ReturnTrip != nil {
		response["return_trip"] = toTripResponse(result.ReturnTrip)
	}

	respondJSON(c, http.StatusCreated, response)
}

// updateTripRequest is the payload for PATCH /v1/trips/:id. All fields are
// optional; absent fields are untouched.
type updateTripRequest struct {
	PassengerName  *string `json:"passenger_name"`
	PassengerPhone *string `json:"passenger_phone"`
	PassengerEmail *string `json:"passenger_email"`

	PickupAddress  *string `json:"pickup_address"`
	PickupCity     *string `json:"pickup_city"`
	PickupState    *string `json:"pickup_state"`
	PickupZip      *string `json:"pickup_zip"`
	DropoffAddress *string `json:"dropoff_address"`
	DropoffCity    *string `json:"dropoff_city"`
	DropoffState   *string `json:"dropoff_state"`
	DropoffZip     *string `json:"dropoff_zip"`

	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at"`
	AppointmentAt     *time.Time `json:"appointment_at"`
	WillCall          *bool      `json:"will_call"`

	ServiceLevel  *string  `json:"service_level"`
	DistanceMiles *float64 `json:"distance_miles"`
	Fare          *float64 `json:"fare"`

	WaitTimeMinutes *int     `json:"wait_time_minutes"`
	WaitTimeCharge  *float64 `json:"wait_time_charge"`

	Notes *string `json:"notes"`

	// Accepted but ignored: trip numbers are immutable.
	TripNumber *string `json:"trip_number"`
}

// UpdateTrip handles PATCH /v1/trips/:id.
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	patch := service.TripPatch{
		PassengerName:     req.PassengerName,
		PassengerPhone:    req.PassengerPhone,
		PassengerEmail:    req.PassengerEmail,
		PickupAddress:     req.PickupAddress,
		PickupCity:        req.PickupCity,
		PickupState:       req.PickupState,
		PickupZip:         req.PickupZip,
		DropoffAddress:    req.DropoffAddress,
		DropoffCity:       req.DropoffCity,
		DropoffState:      req.DropoffState,
		DropoffZip:        req.DropoffZip,
		ScheduledPickupAt: req.ScheduledPickupAt,
		AppointmentAt:     req.AppointmentAt,
		WillCall:          req.WillCall,
		DistanceMiles:     req.DistanceMiles,
		Fare:              req.Fare,
		WaitTimeMinutes:   req.WaitTimeMinutes,
		WaitTimeCharge:    req.WaitTimeCharge,
		Notes:             req.Notes,
		TripNumber:        req.TripNumber,
	}
	if req.ServiceLevel != nil {
		level := domain.ServiceLevel(*req.ServiceLevel)
		patch.ServiceLevel = &level
	}

	trip, err := h.tripService.UpdateTrip(c.Request.Context(), c.Param("id"), patch, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// changeStatusRequest is the payload for POST /v1/trips/:id/status.
type changeStatusRequest struct {
	Status      string   `json:"status" binding:"required"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	SignatureID string   `json:"signature_id"`
	Reason      string   `json:"reason"`
}

// ChangeStatus handles POST /v1/trips/:id/status.
func (h *TripHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	changeReq := service.ChangeStatusRequest{
		TripID:      c.Param("id"),
		NewStatus:   domain.TripStatus(req.Status),
		SignatureID: req.SignatureID,
		Reason:      req.Reason,
		Actor:       actorFromContext(c),
	}
	if req.Latitude != nil && req.Longitude != nil {
		changeReq.Location = &domain.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	trip, err := h.lifecycleService.ChangeStatus(c.Request.Context(), changeReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// assignRequest is the payload for POST /v1/trips/:id/assign.
type assignRequest struct {
	DriverID  string `json:"driver_id" binding:"required"`
	VehicleID string `json:"vehicle_id"`
}

// Assign handles POST /v1/trips/:id/assign.
func (h *TripHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.assignService.Assign(c.Request.Context(), service.AssignRequest{
		TripID:    c.Param("id"),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		Actor:     actorFromContext(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// cancelRequest is the payload for POST /v1/trips/:id/cancel.
type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Cancel handles POST /v1/trips/:id/cancel.
func (h *TripHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.lifecycleService.Cancel(c.Request.Context(), service.CancelRequest{
		TripID: c.Param("id"),
		Reason: req.Reason,
		Actor:  actorFromContext(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Reinstate handles POST /v1/trips/:id/reinstate.
func (h *TripHandler) Reinstate(c *gin.Context) {
	trip, err := h.lifecycleService.Reinstate(c.Request.Context(), service.ReinstateRequest{
		TripID: c.Param("id"),
		Actor:  actorFromContext(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id.
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips.
func (h *TripHandler) GetAll(c *gin.Context) {
	actor := actorFromContext(c)

	trips, err := h.tripService.GetAllTrips(c.Request.Context(), actor.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// HistoryResponse is one audit record in the history listing.
type HistoryResponse struct {
	ID          string `json:"id"`
	ChangeType  string `json:"change_type"`
	FieldName   string `json:"field_name,omitempty"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value,omitempty"`
	ActorID     string `json:"actor_id"`
	ActorName   string `json:"actor_name,omitempty"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// GetHistory handles GET /v1/trips/:id/history.
func (h *TripHandler) GetHistory(c *gin.Context) {
	records, err := h.history.ListByTripID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]HistoryResponse, 0, len(records))
	for _, record := range records {
		response = append(response, HistoryResponse{
			ID:          record.ID,
			ChangeType:  string(record.ChangeType),
			FieldName:   record.FieldName,
			OldValue:    record.OldValue,
			NewValue:    record.NewValue,
			ActorID:     record.ActorID,
			ActorName:   record.ActorName,
			Description: record.Description,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
