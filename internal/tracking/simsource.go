package tracking

import (
	"context"
	"math/rand"
	"time"

	"ambulance/internal/domain"
)

// SimSource is a Source producing a random walk from a starting
// coordinate. Used for development and load exercises where no GPS
// hardware is attached; production agents plug a device-backed Source
// into the same interface.
type SimSource struct {
	Start   domain.Coordinate
	Cadence time.Duration
	StepDeg float64
}

// Watch emits one simulated fix per cadence tick until ctx is cancelled.
func (s *SimSource) Watch(ctx context.Context) (<-chan domain.PositionSample, error) {
	cadence := s.Cadence
	if cadence <= 0 {
		cadence = time.Second
	}
	step := s.StepDeg
	if step <= 0 {
		step = 0.0001 // ~11 m per tick
	}

	out := make(chan domain.PositionSample)
	go func() {
		defer close(out)
		pos := s.Start
		ticker := time.NewTicker(cadence)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				pos.Lat += (rand.Float64() - 0.5) * 2 * step
				pos.Lng += (rand.Float64() - 0.5) * 2 * step
				sample := domain.PositionSample{
					Coord:      pos,
					AccuracyM:  5 + rand.Float64()*10,
					HeadingDeg: rand.Float64() * 360,
					SpeedMPS:   rand.Float64() * 15,
					CapturedAt: now,
				}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
