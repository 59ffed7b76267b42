package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ambulance/internal/service"
)

// AmbulanceHandler serves fleet location queries.
type AmbulanceHandler struct {
	telemetry *service.TelemetryService
}

// NewAmbulanceHandler creates a new AmbulanceHandler.
func NewAmbulanceHandler(telemetry *service.TelemetryService) *AmbulanceHandler {
	return &AmbulanceHandler{telemetry: telemetry}
}

// NearbyAmbulance is one entry in the nearby response.
type NearbyAmbulance struct {
	AmbulanceID string  `json:"ambulance_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DistanceKm  float64 `json:"distance_km"`
}

// Nearby handles GET /v1/ambulances/nearby?lat=&lng=&radius_km=
func (h *AmbulanceHandler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "invalid lng"})
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "invalid radius_km"})
			return
		}
	}

	locations, err := h.telemetry.Nearby(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]NearbyAmbulance, 0, len(locations))
	for _, loc := range locations {
		out = append(out, NearbyAmbulance{
			AmbulanceID: loc.AmbulanceID,
			Latitude:    loc.Lat,
			Longitude:   loc.Lng,
			DistanceKm:  loc.DistanceKm,
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "ambulances": out})
}
