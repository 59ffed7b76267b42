package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ambulance/internal/agent"
	"ambulance/internal/config"
	"ambulance/internal/domain"
	"ambulance/internal/logging"
	"ambulance/internal/tracking"
)

func main() {
	cfg := config.Load()
	log := logging.NewConsole("ambulance-agent", cfg.Log.Level)

	if cfg.Agent.DriverID == "" || cfg.Agent.AmbulanceID == "" {
		log.Fatal().Msg("AGENT_DRIVER_ID and AGENT_AMBULANCE_ID are required")
	}

	// The simulated source stands in for the vehicle's GPS unit; a real
	// deployment swaps in a gpsd-backed Source.
	source := &tracking.SimSource{
		Start:   domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Cadence: time.Second,
	}

	a := agent.New(cfg, source, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("driver_id", cfg.Agent.DriverID).
		Str("ambulance_id", cfg.Agent.AmbulanceID).
		Msg("starting agent")

	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("agent exited with error")
	}
	log.Info().Msg("agent stopped")
}
