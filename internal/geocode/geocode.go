package geocode

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog"

	"ambulance/internal/domain"
)

const (
	// providerTimeout bounds each provider call; on expiry the next
	// provider in the chain is tried.
	providerTimeout = 5 * time.Second

	// cacheSize bounds the in-memory address cache.
	cacheSize = 512

	// keyPrecision is the number of geohash characters used for the
	// cache key, derived from coordinates rounded to 4 decimals.
	keyPrecision = 8
)

// Provider resolves a coordinate to a human-readable address.
type Provider interface {
	Reverse(ctx context.Context, c domain.Coordinate) (string, error)
}

// Geocoder resolves coordinates to addresses via an ordered provider
// chain with a bounded cache. Resolve never fails: when the chain is
// exhausted it falls back to a coordinate-formatted string.
type Geocoder struct {
	providers []Provider
	cache     *lru.Cache[string, string]
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a Geocoder trying the given providers in order.
func New(log zerolog.Logger, providers ...Provider) *Geocoder {
	cache, _ := lru.New[string, string](cacheSize)
	return &Geocoder{
		providers: providers,
		cache:     cache,
		timeout:   providerTimeout,
		log:       log.With().Str("component", "geocoder").Logger(),
	}
}

// cacheKey derives the cache key from the coordinate rounded to 4
// decimal places (~11 m), so nearby fixes share one address lookup.
func cacheKey(c domain.Coordinate) string {
	round := func(v float64) float64 {
		return float64(int64(v*1e4+copysignHalf(v))) / 1e4
	}
	return geohash.EncodeWithPrecision(round(c.Lat), round(c.Lng), keyPrecision)
}

func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// Resolve returns the address for a coordinate. Identical rounded
// coordinates issue at most one external call.
func (g *Geocoder) Resolve(ctx context.Context, c domain.Coordinate) string {
	key := cacheKey(c)
	if addr, ok := g.cache.Get(key); ok {
		return addr
	}

	for _, p := range g.providers {
		addr, err := g.reverseWithTimeout(ctx, p, c)
		if err != nil {
			g.log.Debug().Err(err).Float64("lat", c.Lat).Float64("lng", c.Lng).Msg("geocode provider failed, trying next")
			continue
		}
		if addr == "" {
			continue
		}
		g.cache.Add(key, addr)
		return addr
	}

	// Chain exhausted: format the coordinates directly. Never cached,
	// so a later retry can still resolve a real address.
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)
}

func (g *Geocoder) reverseWithTimeout(ctx context.Context, p Provider, c domain.Coordinate) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return p.Reverse(callCtx, c)
}
