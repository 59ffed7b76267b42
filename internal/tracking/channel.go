package tracking

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ambulance/internal/domain"
)

// ErrDisconnected is returned by Emit when the channel has no live
// connection. The sample for that tick is dropped, never queued.
var ErrDisconnected = errors.New("tracking channel disconnected")

// Channel is the persistent bidirectional link to the dispatch server:
// throttled position samples go up, authoritative trip-state pushes come
// down.
type Channel struct {
	url         string
	token       string
	driverID    string
	ambulanceID string
	onTripPush  func(*domain.Trip)
	log         zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewChannel creates a Channel. onTripPush receives every server-pushed
// trip state; it must not block.
func NewChannel(url, token, driverID, ambulanceID string, onTripPush func(*domain.Trip), log zerolog.Logger) *Channel {
	return &Channel{
		url:         url,
		token:       token,
		driverID:    driverID,
		ambulanceID: ambulanceID,
		onTripPush:  onTripPush,
		log:         log.With().Str("component", "tracking-channel").Logger(),
	}
}

// Connect dials the server and starts the read loop for pushes.
// Reconnection is the caller's policy; a failed Connect leaves the
// channel disconnected and Emit dropping samples.
func (c *Channel) Connect(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	c.log.Info().Str("url", c.url).Msg("tracking channel connected")
	return nil
}

// readLoop consumes server pushes until the connection drops.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var event TripEvent
		if err := conn.ReadJSON(&event); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			c.log.Warn().Err(err).Msg("tracking channel read failed, disconnected")
			return
		}

		if event.Type == "trip_update" && c.onTripPush != nil {
			c.onTripPush(event.Trip.ToDomain())
		}
	}
}

// Emit sends one position sample. When disconnected the sample is
// dropped and ErrDisconnected returned; the next tick tries again.
func (c *Channel) Emit(s domain.PositionSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrDisconnected
	}

	event := NewPositionEvent(c.driverID, c.ambulanceID, s)
	if err := c.conn.WriteJSON(event); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return ErrDisconnected
	}
	return nil
}

// Connected reports whether a live connection is held.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close tears the connection down.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
