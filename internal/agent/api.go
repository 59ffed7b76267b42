package agent

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ambulance/internal/trip"
	"ambulance/internal/tripapi"
)

// router builds the local API consumed by the cab display. It binds to
// the vehicle's loopback, so there is no auth layer here.
func (a *Agent) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	{
		v1.GET("/snapshot", a.getSnapshot)
		v1.POST("/refresh", a.postRefresh)

		arrival := v1.Group("/arrival")
		{
			arrival.POST("/arm", a.postArrivalArm)
			arrival.POST("/update", a.postArrivalUpdate)
			arrival.POST("/release", a.postArrivalRelease)
			arrival.POST("/confirm", a.postArrivalConfirm)
		}

		v1.POST("/otp", a.postOTP)
		v1.POST("/complete", a.postComplete)
	}

	return r
}

func (a *Agent) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, a.engine.Snapshot())
}

func (a *Agent) postRefresh(c *gin.Context) {
	if _, err := a.engine.Refresh(c.Request.Context()); err != nil {
		respondLocalError(c, err)
		return
	}
	a.annotateAddresses(c.Request.Context())
	c.JSON(http.StatusOK, a.engine.Snapshot())
}

func (a *Agent) postArrivalArm(c *gin.Context) {
	a.mu.Lock()
	a.gesture.Arm()
	a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"armed": true})
}

// ArrivalUpdateRequest reports the confirmation control's displacement
// fraction in [0,1].
type ArrivalUpdateRequest struct {
	Displacement float64 `json:"displacement"`
}

func (a *Agent) postArrivalUpdate(c *gin.Context) {
	var req ArrivalUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a.mu.Lock()
	a.gesture.Update(req.Displacement)
	committed := a.gesture.Committed()
	a.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"committed": committed})
}

func (a *Agent) postArrivalRelease(c *gin.Context) {
	a.mu.Lock()
	a.gesture.Release()
	committed := a.gesture.Committed()
	a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"committed": committed})
}

func (a *Agent) postArrivalConfirm(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.engine.ConfirmArrival(c.Request.Context(), a.gesture); err != nil {
		respondLocalError(c, err)
		return
	}
	a.gesture.Reset()
	c.JSON(http.StatusOK, a.engine.Snapshot())
}

// OTPRequest carries the patient's verification code.
type OTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

func (a *Agent) postOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.engine.SubmitOTP(c.Request.Context(), req.OTP); err != nil {
		respondLocalError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.engine.Snapshot())
}

// CompleteRequest carries the driver's explicit confirmation.
type CompleteRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (a *Agent) postComplete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.engine.CompleteTrip(c.Request.Context(), req.Confirmed); err != nil {
		respondLocalError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.engine.Snapshot())
}

// respondLocalError maps engine errors to HTTP statuses for the display.
func respondLocalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrNoActiveTrip):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrOTPTooShort),
		errors.Is(err, trip.ErrOTPNotNumeric),
		errors.Is(err, trip.ErrNotConfirmed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tripapi.ErrOTPRejected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "otp_mismatch"})
	case errors.Is(err, trip.ErrNotNearPickup),
		errors.Is(err, trip.ErrWrongState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
