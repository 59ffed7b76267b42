package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ambulance/internal/domain"
)

const (
	// directionsTimeout bounds each call to the directions provider.
	directionsTimeout = 5 * time.Second

	// httpMaxIdleConns keeps a small keep-alive pool for repeated
	// route refreshes against the same provider host.
	httpMaxIdleConns = 10
)

// ErrRouteUnavailable is returned when the provider reports a non-OK
// status or an empty route list. Callers must degrade to a straight-line
// display rather than fabricating a route.
type ErrRouteUnavailable struct {
	ProviderStatus string
}

func (e *ErrRouteUnavailable) Error() string {
	return fmt.Sprintf("no route available (provider status %q)", e.ProviderStatus)
}

// DirectionsClient resolves driving routes via an external directions
// provider speaking the Google Directions JSON wire format.
type DirectionsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewDirectionsClient creates a DirectionsClient against the given
// provider base URL.
func NewDirectionsClient(baseURL, apiKey string) *DirectionsClient {
	return &DirectionsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: directionsTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        httpMaxIdleConns,
				MaxIdleConnsPerHost: httpMaxIdleConns,
			},
		},
	}
}

// directionsResponse mirrors the provider wire format.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// Route requests a driving route from origin to destination, decodes the
// overview polyline and derives the enclosing bounds.
func (c *DirectionsClient) Route(ctx context.Context, origin, dest domain.Coordinate) (*domain.RouteInfo, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	q.Set("mode", "driving")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	reqCtx, cancel := context.WithTimeout(ctx, directionsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/maps/api/directions/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("routing: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing: directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing: directions status %d", resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("routing: decode response: %w", err)
	}

	if body.Status != "OK" || len(body.Routes) == 0 {
		return nil, &ErrRouteUnavailable{ProviderStatus: body.Status}
	}

	route := body.Routes[0]
	if len(route.Legs) == 0 {
		return nil, &ErrRouteUnavailable{ProviderStatus: body.Status}
	}

	points, err := DecodePolyline(route.OverviewPolyline.Points)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	if len(points) == 0 {
		return nil, &ErrRouteUnavailable{ProviderStatus: body.Status}
	}

	leg := route.Legs[0]
	return &domain.RouteInfo{
		Points:       points,
		DistanceText: leg.Distance.Text,
		DurationText: leg.Duration.Text,
		DistanceM:    leg.Distance.Value,
		DurationS:    leg.Duration.Value,
		Bounds:       BoundsOf(points),
	}, nil
}
