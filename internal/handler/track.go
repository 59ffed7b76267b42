package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ambulance/internal/hub"
	"ambulance/internal/middleware"
	"ambulance/internal/service"
	"ambulance/internal/tracking"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TrackHandler owns the websocket tracking endpoints: the driver uplink
// and the watcher stream.
type TrackHandler struct {
	hub       *hub.Hub
	telemetry *service.TelemetryService
	log       zerolog.Logger
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(h *hub.Hub, telemetry *service.TelemetryService, log zerolog.Logger) *TrackHandler {
	return &TrackHandler{
		hub:       h,
		telemetry: telemetry,
		log:       log.With().Str("component", "track-handler").Logger(),
	}
}

// Track handles GET /v1/track: the driver's bidirectional channel.
// Inbound frames are position events; trip pushes travel the other way
// through the hub.
func (h *TrackHandler) Track(c *gin.Context) {
	driverID := middleware.DriverID(c)
	if driverID == "" {
		c.JSON(http.StatusUnauthorized, Response{Status: "error", Message: "driver identity required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("tracking upgrade failed")
		return
	}

	h.hub.AddDriver(driverID, conn)
	defer func() {
		h.hub.RemoveDriver(driverID, conn)
		_ = conn.Close()
	}()

	for {
		var event tracking.PositionEvent
		if err := conn.ReadJSON(&event); err != nil {
			h.log.Debug().Err(err).Str("driver_id", driverID).Msg("tracking channel closed")
			return
		}
		event.DriverID = driverID

		if err := h.telemetry.HandlePosition(c.Request.Context(), event); err != nil {
			h.log.Warn().Err(err).Str("driver_id", driverID).Msg("position rejected")
			continue
		}
		h.hub.Broadcast(event)
	}
}

// Watch handles GET /v1/track/watch?ambulance_id=: a read-only stream
// of one ambulance's positions for patient-side consumers.
func (h *TrackHandler) Watch(c *gin.Context) {
	ambulanceID := c.Query("ambulance_id")
	if ambulanceID == "" {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "ambulance_id required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("watch upgrade failed")
		return
	}

	handle := h.hub.AddWatcher(ambulanceID, conn)
	defer func() {
		handle.Remove()
		_ = conn.Close()
	}()

	// Watchers never send application frames; drain until the peer
	// goes away so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
