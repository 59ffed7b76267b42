package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ambulance", Name: "position_samples_emitted_total",
		Help: "Position samples emitted to the tracking channel",
	})
	SamplesThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ambulance", Name: "position_samples_throttled_total",
		Help: "Position samples discarded inside the throttle window",
	})
	SamplesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ambulance", Name: "position_samples_dropped_total",
		Help: "Position samples dropped because the channel was disconnected",
	})

	PositionsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ambulance", Name: "positions_ingested_total",
		Help: "Position events accepted by the dispatch server",
	})
	TripTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ambulance", Name: "trip_transitions_total",
			Help: "Trip state transitions applied by the server",
		},
		[]string{"to"},
	)
	TrackingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ambulance", Name: "tracking_sessions",
		Help: "Open websocket tracking sessions",
	})
)
