package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ambulance/internal/domain"
	"ambulance/internal/repository"
	"ambulance/internal/service"
)

// Response is the uniform envelope for trip endpoints: a status
// discriminator plus a message, with the trip payload when present.
type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Code    string       `json:"code,omitempty"`
	Trip    *TripPayload `json:"trip"`
}

// TripPayload is the wire form of a trip.
type TripPayload struct {
	ID          string     `json:"id"`
	DriverID    string     `json:"driver_id"`
	AmbulanceID string     `json:"ambulance_id"`
	Status      string     `json:"status"`
	PickupLat   float64    `json:"pickup_lat"`
	PickupLng   float64    `json:"pickup_lng"`
	DropLat     float64    `json:"drop_lat"`
	DropLng     float64    `json:"drop_lng"`
	RequestedAt time.Time  `json:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	ArrivedAt   *time.Time `json:"arrived_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
}

func toPayload(t *domain.Trip) *TripPayload {
	if t == nil {
		return nil
	}
	p := &TripPayload{
		ID:          t.ID,
		DriverID:    t.DriverID,
		AmbulanceID: t.AmbulanceID,
		Status:      string(t.Status),
		PickupLat:   t.Pickup.Lat,
		PickupLng:   t.Pickup.Lng,
		DropLat:     t.Drop.Lat,
		DropLng:     t.Drop.Lng,
		RequestedAt: t.RequestedAt,
	}
	setIf := func(dst **time.Time, src time.Time) {
		if !src.IsZero() {
			v := src
			*dst = &v
		}
	}
	setIf(&p.AcceptedAt, t.AcceptedAt)
	setIf(&p.ArrivedAt, t.ArrivedAt)
	setIf(&p.StartedAt, t.StartedAt)
	setIf(&p.CompletedAt, t.CompletedAt)
	setIf(&p.CancelledAt, t.CancelledAt)
	setIf(&p.ExpiredAt, t.ExpiredAt)
	return p
}

// respondTrip sends a success envelope carrying the trip (which may be
// nil for an empty active lookup).
func respondTrip(c *gin.Context, code int, trip *domain.Trip) {
	c.JSON(code, Response{Status: "success", Trip: toPayload(trip)})
}

// respondError sends an error envelope with the appropriate HTTP status
// code and, for recoverable failures, a machine-readable code.
func respondError(c *gin.Context, err error) {
	status, code := mapErrorToHTTPStatus(err)
	c.JSON(status, Response{Status: "error", Message: err.Error(), Code: code})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status
// codes. The second return is a machine-readable code for errors
// clients branch on.
func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ""

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidAmbulanceID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidCancelParty),
		errors.Is(err, service.ErrOTPTooShort):
		return http.StatusBadRequest, ""

	// OTP rejection is recoverable: the driver re-reads the code and
	// retries without losing the trip.
	case errors.Is(err, service.ErrOTPMismatch):
		return http.StatusUnauthorized, "otp_mismatch"

	// Conflict errors
	case errors.Is(err, service.ErrDriverHasActiveTrip),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTripTerminal):
		return http.StatusConflict, ""

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ""
	}
}
