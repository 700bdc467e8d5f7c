package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nemt/internal/middleware"
	"nemt/internal/repository"
	"nemt/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// actorFromContext builds the acting identity from the values the identity
// middleware extracted.
func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		ID:             c.GetString(middleware.ContextActorID),
		Name:           c.GetString(middleware.ContextActorName),
		OrganizationID: c.GetString(middleware.ContextOrganizationID),
	}
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var invalidTransition *service.InvalidTransitionError
	var configuration *service.ConfigurationError

	switch {
	// Not found errors.
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors.
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPassengerName),
		errors.Is(err, service.ErrInvalidScheduledTime),
		errors.Is(err, service.ErrMissingCancellationReason),
		errors.Is(err, service.ErrInvalidTrackingToken):
		return http.StatusBadRequest

	// The driver app must re-enable location and retry.
	case errors.Is(err, service.ErrMissingLocation):
		return http.StatusUnprocessableEntity

	// Conflicts with the trip's current state.
	case errors.As(err, &invalidTransition),
		errors.Is(err, service.ErrNotReinstatable),
		errors.Is(err, service.ErrTripBeingAssigned),
		errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict

	// Rate configuration problems are not retryable.
	case errors.As(err, &configuration):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
