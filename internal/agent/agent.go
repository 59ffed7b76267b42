package agent

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ambulance/internal/config"
	"ambulance/internal/domain"
	"ambulance/internal/geocode"
	"ambulance/internal/routing"
	"ambulance/internal/tracking"
	"ambulance/internal/trip"
	"ambulance/internal/tripapi"
)

// reconnectEvery is how often a disconnected uplink is redialed.
const reconnectEvery = 5 * time.Second

// Agent is the on-vehicle daemon: it samples positions, keeps the trip
// engine in sync with the dispatch server, annotates the active trip
// with route and address context, and serves the local snapshot API the
// cab display polls.
type Agent struct {
	cfg *config.Config
	log zerolog.Logger

	engine     *trip.Engine
	sampler    *tracking.Sampler
	channel    *tracking.Channel
	geocoder   *geocode.Geocoder
	directions *routing.DirectionsClient

	mu      sync.Mutex
	gesture *trip.ArrivalGesture
}

// New wires an Agent from configuration and a position source.
func New(cfg *config.Config, source tracking.Source, log zerolog.Logger) *Agent {
	api := tripapi.NewClient(cfg.Agent.ServerURL, cfg.Agent.Token)
	engine := trip.NewEngine(api, cfg.Agent.DriverID, log)

	a := &Agent{
		cfg:        cfg,
		log:        log.With().Str("component", "agent").Logger(),
		engine:     engine,
		directions: routing.NewDirectionsClient(cfg.Directions.BaseURL, cfg.Directions.APIKey),
		gesture:    trip.NewArrivalGesture(1),
	}

	providers := []geocode.Provider{geocode.NewOSMProvider(cfg.Geocode.NominatimURL)}
	if fp := geocode.NewFormattedProvider(cfg.Geocode.FormattedURL, cfg.Geocode.FormattedKey); fp != nil {
		providers = append(providers, fp)
	}
	a.geocoder = geocode.New(log, providers...)

	a.channel = tracking.NewChannel(
		cfg.Agent.TrackURL,
		cfg.Agent.Token,
		cfg.Agent.DriverID,
		cfg.Agent.AmbulanceID,
		a.onTripPush,
		log,
	)

	a.sampler = tracking.NewSampler(tracking.SamplerConfig{
		Source:        source,
		Emitter:       a.channel,
		OnSample:      engine.OnPosition,
		Annotate:      a.annotate,
		Interval:      cfg.Tracking.SampleInterval,
		AnnotateEvery: cfg.Tracking.AnnotateEvery,
		StartupGrace:  cfg.Tracking.StartupGrace,
		Logger:        log,
	})

	return a
}

// Run starts the uplink, the sampling loop, and the local API, then
// blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	// Server state wins over anything remembered locally.
	if _, err := a.engine.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("initial trip refresh failed")
	} else {
		a.annotateAddresses(ctx)
	}

	go a.keepConnected(ctx)

	if _, err := a.sampler.Start(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    ":" + a.cfg.Agent.Port,
		Handler: a.router(),
	}
	go func() {
		a.log.Info().Str("port", a.cfg.Agent.Port).Msg("agent API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error().Err(err).Msg("agent API server error")
		}
	}()

	<-ctx.Done()

	a.sampler.Stop()
	_ = a.channel.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// keepConnected redials the tracking uplink whenever it drops. Samples
// emitted while disconnected are dropped by the channel; proximity
// classification keeps running regardless.
func (a *Agent) keepConnected(ctx context.Context) {
	ticker := time.NewTicker(reconnectEvery)
	defer ticker.Stop()

	for {
		if !a.channel.Connected() {
			if err := a.channel.Connect(ctx); err != nil {
				a.log.Warn().Err(err).Msg("tracking uplink dial failed")
			} else {
				a.log.Info().Msg("tracking uplink connected")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// onTripPush applies a server-pushed trip state and refreshes the
// route/address context for whatever the new state is.
func (a *Agent) onTripPush(t *domain.Trip) {
	a.engine.ApplyServerPush(t)
	if t != nil && !t.Status.Terminal() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.annotateAddresses(ctx)
	}
}

// annotate refreshes the active trip's route from the latest position.
// Before pickup the route targets the pickup point; from in_progress on
// it targets the drop.
func (a *Agent) annotate(ctx context.Context, from domain.Coordinate) {
	t := a.engine.Active()
	if t == nil {
		return
	}

	dest := t.Pickup
	if t.Status == domain.TripStatusInProgress {
		dest = t.Drop
	}

	route, err := a.directions.Route(ctx, from, dest)
	if err != nil {
		a.log.Debug().Err(err).Msg("route refresh failed")
		return
	}
	a.engine.SetRoute(route)
}

// annotateAddresses resolves the pickup and drop labels for the active
// trip. Resolution never fails; worst case the labels are formatted
// coordinates.
func (a *Agent) annotateAddresses(ctx context.Context) {
	t := a.engine.Active()
	if t == nil {
		return
	}
	a.engine.SetAddresses(
		a.geocoder.Resolve(ctx, t.Pickup),
		a.geocoder.Resolve(ctx, t.Drop),
	)
}
