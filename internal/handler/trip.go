package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ambulance/internal/domain"
	"ambulance/internal/service"
)

// TripHandler handles HTTP requests for the trip lifecycle.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// DispatchRequest is the body for creating a trip.
type DispatchRequest struct {
	DriverID    string  `json:"driver_id" binding:"required"`
	AmbulanceID string  `json:"ambulance_id" binding:"required"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DropLat     float64 `json:"drop_lat"`
	DropLng     float64 `json:"drop_lng"`
}

// DispatchResponse carries the created trip plus the OTP handed to the
// patient out of band.
type DispatchResponse struct {
	Status string       `json:"status"`
	Trip   *TripPayload `json:"trip"`
	OTP    string       `json:"otp"`
}

// Dispatch handles POST /v1/trips/dispatch
func (h *TripHandler) Dispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
		return
	}

	trip, otp, err := h.tripService.Dispatch(c.Request.Context(), service.DispatchRequest{
		DriverID:    req.DriverID,
		AmbulanceID: req.AmbulanceID,
		Pickup:      domain.Coordinate{Lat: req.PickupLat, Lng: req.PickupLng},
		Drop:        domain.Coordinate{Lat: req.DropLat, Lng: req.DropLng},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, DispatchResponse{
		Status: "success",
		Trip:   toPayload(trip),
		OTP:    otp,
	})
}

// Accept handles POST /v1/trips/:id/accept
func (h *TripHandler) Accept(c *gin.Context) {
	trip, err := h.tripService.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// GetActive handles GET /v1/trips/active?driver_id=
// A driver with no active trip gets a success envelope with a null trip.
func (h *TripHandler) GetActive(c *gin.Context) {
	trip, err := h.tripService.ActiveByDriver(c.Request.Context(), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// MarkArrived handles POST /v1/trips/:id/arrived
func (h *TripHandler) MarkArrived(c *gin.Context) {
	trip, err := h.tripService.MarkArrived(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// VerifyOTPRequest is the body for OTP verification.
type VerifyOTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// VerifyOTP handles POST /v1/trips/:id/verify-otp
func (h *TripHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
		return
	}

	trip, err := h.tripService.VerifyOTP(c.Request.Context(), c.Param("id"), req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// Complete handles POST /v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	trip, err := h.tripService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// CancelRequest names the cancelling party.
type CancelRequest struct {
	By string `json:"by" binding:"required"`
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), c.Param("id"), req.By)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}

// Expire handles POST /v1/trips/:id/expire
func (h *TripHandler) Expire(c *gin.Context) {
	trip, err := h.tripService.Expire(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondTrip(c, http.StatusOK, trip)
}
