package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ambulance/internal/domain"
)

// ErrNoAddress is returned when a provider responds without a usable
// address for the coordinate.
var ErrNoAddress = errors.New("no address for coordinate")

// OSMProvider reverse-geocodes against a Nominatim-style endpoint. It
// prefers the display name and falls back to joining the structured
// address components.
type OSMProvider struct {
	baseURL string
	client  *http.Client
}

// NewOSMProvider creates an OSMProvider for the given base URL.
func NewOSMProvider(baseURL string) *OSMProvider {
	return &OSMProvider{baseURL: baseURL, client: &http.Client{}}
}

type osmResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road    string `json:"road"`
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves the coordinate via the provider's reverse endpoint.
func (p *OSMProvider) Reverse(ctx context.Context, c domain.Coordinate) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", c.Lat))
	q.Set("lon", fmt.Sprintf("%f", c.Lng))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: osm status %d", resp.StatusCode)
	}

	var body osmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	if body.DisplayName != "" {
		return body.DisplayName, nil
	}

	parts := []string{body.Address.Road, body.Address.Suburb, body.Address.City, body.Address.State, body.Address.Country}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "", ErrNoAddress
	}
	return strings.Join(nonEmpty, ", "), nil
}

// FormattedProvider is a key-gated secondary provider returning a single
// pre-formatted address string.
type FormattedProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFormattedProvider creates a FormattedProvider. Returns nil if no
// API key is configured, so the chain simply skips it.
func NewFormattedProvider(baseURL, apiKey string) *FormattedProvider {
	if apiKey == "" {
		return nil
	}
	return &FormattedProvider{baseURL: baseURL, apiKey: apiKey, client: &http.Client{}}
}

type formattedResponse struct {
	Results []struct {
		Formatted string `json:"formatted"`
	} `json:"results"`
}

// Reverse resolves the coordinate via the keyed provider.
func (p *FormattedProvider) Reverse(ctx context.Context, c domain.Coordinate) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%f+%f", c.Lat, c.Lng))
	q.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/geocode/v1/json?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: formatted provider status %d", resp.StatusCode)
	}

	var body formattedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	if len(body.Results) == 0 || body.Results[0].Formatted == "" {
		return "", ErrNoAddress
	}
	return body.Results[0].Formatted, nil
}
