package hub

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/observability"
	"ambulance/internal/tracking"
)

// ErrNoSession is returned when pushing to a driver with no open
// tracking channel.
var ErrNoSession = errors.New("no tracking session")

// session wraps one websocket connection with a write lock.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub holds the open tracking sessions: one uplink per driver, plus any
// number of watchers subscribed to an ambulance's position stream.
type Hub struct {
	mu       sync.RWMutex
	drivers  map[string]*session
	watchers map[string]map[*session]struct{}
	log      zerolog.Logger
}

// New creates an empty Hub.
func New(log zerolog.Logger) *Hub {
	return &Hub{
		drivers:  make(map[string]*session),
		watchers: make(map[string]map[*session]struct{}),
		log:      log.With().Str("component", "tracking-hub").Logger(),
	}
}

// AddDriver registers a driver's uplink, replacing any previous session.
func (h *Hub) AddDriver(driverID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.drivers[driverID]; ok {
		_ = old.conn.Close()
	} else {
		observability.TrackingSessions.Inc()
	}
	h.drivers[driverID] = &session{conn: conn}
}

// RemoveDriver drops a driver's session if the given connection is
// still the registered one.
func (h *Hub) RemoveDriver(driverID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.drivers[driverID]; ok && s.conn == conn {
		delete(h.drivers, driverID)
		observability.TrackingSessions.Dec()
	}
}

// AddWatcher subscribes a consumer to an ambulance's position stream.
func (h *Hub) AddWatcher(ambulanceID string, conn *websocket.Conn) *WatcherHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &session{conn: conn}
	if h.watchers[ambulanceID] == nil {
		h.watchers[ambulanceID] = make(map[*session]struct{})
	}
	h.watchers[ambulanceID][s] = struct{}{}
	observability.TrackingSessions.Inc()
	return &WatcherHandle{hub: h, ambulanceID: ambulanceID, s: s}
}

// WatcherHandle detaches a watcher subscription.
type WatcherHandle struct {
	hub         *Hub
	ambulanceID string
	s           *session
}

// Remove unsubscribes the watcher.
func (w *WatcherHandle) Remove() {
	w.hub.mu.Lock()
	defer w.hub.mu.Unlock()
	if set, ok := w.hub.watchers[w.ambulanceID]; ok {
		if _, ok := set[w.s]; ok {
			delete(set, w.s)
			observability.TrackingSessions.Dec()
		}
		if len(set) == 0 {
			delete(w.hub.watchers, w.ambulanceID)
		}
	}
}

// Broadcast fans a position event out to the ambulance's watchers.
// Dead watcher connections are dropped silently; the next event simply
// reaches fewer consumers.
func (h *Hub) Broadcast(event tracking.PositionEvent) {
	h.mu.RLock()
	set := h.watchers[event.AmbulanceID]
	subs := make([]*session, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.send(event); err != nil {
			h.log.Debug().Err(err).Str("ambulance_id", event.AmbulanceID).Msg("watcher send failed")
		}
	}
}

// PushTrip delivers an authoritative trip state to the driver's uplink.
func (h *Hub) PushTrip(driverID string, trip *domain.Trip) error {
	h.mu.RLock()
	s, ok := h.drivers[driverID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}

	if err := s.send(tracking.NewTripEvent(trip)); err != nil {
		h.log.Warn().Err(err).Str("driver_id", driverID).Msg("trip push failed")
		return err
	}
	return nil
}
