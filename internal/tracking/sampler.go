package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ambulance/internal/domain"
	"ambulance/internal/observability"
)

const (
	// DefaultInterval is the emission throttle window: at most one
	// outbound sample per window, a hard floor rather than an adaptive
	// backoff.
	DefaultInterval = 5 * time.Second

	// DefaultAnnotateEvery is the slower cadence for refreshing the
	// trip's route/ETA annotation from the latest position.
	DefaultAnnotateEvery = 30 * time.Second

	// DefaultStartupGrace is how long the sampler tolerates having no
	// position fix before logging a warning. It keeps retrying either
	// way; silence is a warning, never an abort.
	DefaultStartupGrace = 30 * time.Second
)

// Source acquires device position fixes as a cancellable stream. The
// stream ends when the context is cancelled.
type Source interface {
	Watch(ctx context.Context) (<-chan domain.PositionSample, error)
}

// Emitter carries throttled samples to remote consumers.
type Emitter interface {
	Emit(domain.PositionSample) error
}

// SamplerConfig wires a Sampler.
type SamplerConfig struct {
	Source        Source
	Emitter       Emitter
	OnSample      func(domain.PositionSample)              // proximity feed, called in the sampling goroutine
	Annotate      func(context.Context, domain.Coordinate) // route/ETA refresh, runs on its own goroutine
	Interval      time.Duration
	AnnotateEvery time.Duration
	StartupGrace  time.Duration
	Now           func() time.Time // test hook
	Logger        zerolog.Logger
}

// Sampler is the long-lived position sampling loop. It runs outside any
// UI execution context, throttles outbound emission to one sample per
// window, and degrades by dropping samples rather than queuing them.
// All sampler state is owned by the loop goroutine plus the start/stop
// guard; nothing global.
type Sampler struct {
	src      Source
	out      Emitter
	onSample func(domain.PositionSample)
	annotate func(context.Context, domain.Coordinate)

	interval      time.Duration
	annotateEvery time.Duration
	startupGrace  time.Duration
	now           func() time.Time
	log           zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	lastEmit     time.Time
	lastAnnotate time.Time
}

// NewSampler creates a Sampler from the config, applying defaults for
// unset cadences.
func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.AnnotateEvery <= 0 {
		cfg.AnnotateEvery = DefaultAnnotateEvery
	}
	if cfg.StartupGrace <= 0 {
		cfg.StartupGrace = DefaultStartupGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sampler{
		src:           cfg.Source,
		out:           cfg.Emitter,
		onSample:      cfg.OnSample,
		annotate:      cfg.Annotate,
		interval:      cfg.Interval,
		annotateEvery: cfg.AnnotateEvery,
		startupGrace:  cfg.StartupGrace,
		now:           cfg.Now,
		log:           cfg.Logger.With().Str("component", "position-sampler").Logger(),
	}
}

// Start begins sampling. Idempotent: a second start while running is a
// no-op returning false. The sampler keeps running regardless of UI
// focus; only Stop (logout, trip end) or process exit ends it.
func (s *Sampler) Start() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	samples, err := s.src.Watch(ctx)
	if err != nil {
		cancel()
		return false, err
	}

	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastEmit = time.Time{}
	s.lastAnnotate = time.Time{}

	go s.run(ctx, samples)
	s.log.Info().Msg("position sampling started")
	return true, nil
}

// Stop tears down the position subscription and returns only after the
// loop has exited, guaranteeing no sample is emitted after Stop
// completes. Idempotent: stopping a stopped sampler is a no-op.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info().Msg("position sampling stopped")
}

// Running reports whether the loop is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sampler) run(ctx context.Context, samples <-chan domain.PositionSample) {
	defer close(s.done)

	silence := time.NewTimer(s.startupGrace)
	defer silence.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case sample, ok := <-samples:
			if !ok {
				s.log.Warn().Msg("position source closed")
				return
			}
			if !silence.Stop() {
				select {
				case <-silence.C:
				default:
				}
			}
			silence.Reset(s.startupGrace)
			s.handle(ctx, sample)

		case <-silence.C:
			// No fix for the whole grace window. Keep retrying; the
			// user sees staleness, not a failure.
			s.log.Warn().Dur("silence", s.startupGrace).Msg("no position fix, still waiting")
			silence.Reset(s.startupGrace)
		}
	}
}

// handle applies the throttle rule and fans one sample out. Samples
// arriving inside the window are discarded, not queued.
func (s *Sampler) handle(ctx context.Context, sample domain.PositionSample) {
	now := s.now()

	if !s.lastEmit.IsZero() && now.Sub(s.lastEmit) < s.interval {
		observability.SamplesThrottled.Inc()
		return
	}
	s.lastEmit = now

	if s.onSample != nil {
		s.onSample(sample)
	}

	if err := s.out.Emit(sample); err != nil {
		// Channel down: drop this tick's sample, no buffering or replay.
		observability.SamplesDropped.Inc()
		s.log.Debug().Err(err).Msg("sample dropped")
	} else {
		observability.SamplesEmitted.Inc()
	}

	if s.annotate != nil && (s.lastAnnotate.IsZero() || now.Sub(s.lastAnnotate) >= s.annotateEvery) {
		s.lastAnnotate = now
		// Fire-and-forget; the annotation call never blocks the loop.
		go s.annotate(ctx, sample.Coord)
	}
}
