package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ambulance/internal/domain"
)

func TestRouteResolvesDistanceDurationAndBounds(t *testing.T) {
	encoded := EncodePolyline([]domain.Coordinate{
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: 12.9730, Lng: 77.5950},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "driving" {
			t.Errorf("expected driving mode, got %q", r.URL.Query().Get("mode"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [{
					"distance": {"text": "1.2 km", "value": 1200},
					"duration": {"text": "4 mins", "value": 240}
				}],
				"overview_polyline": {"points": "` + encoded + `"}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewDirectionsClient(srv.URL, "test-key")
	route, err := c.Route(context.Background(), domain.Coordinate{Lat: 12.9716, Lng: 77.5946}, domain.Coordinate{Lat: 12.9730, Lng: 77.5950})
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if len(route.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(route.Points))
	}
	if route.DistanceText != "1.2 km" || route.DurationText != "4 mins" {
		t.Errorf("unexpected texts: %q %q", route.DistanceText, route.DurationText)
	}
	if route.Bounds.NorthEast.Lat < route.Bounds.SouthWest.Lat {
		t.Error("inverted bounds")
	}
}

func TestRouteProviderStatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer srv.Close()

	c := NewDirectionsClient(srv.URL, "")
	_, err := c.Route(context.Background(), domain.Coordinate{}, domain.Coordinate{Lat: 1, Lng: 1})

	var unavailable *ErrRouteUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrRouteUnavailable, got %v", err)
	}
	if unavailable.ProviderStatus != "ZERO_RESULTS" {
		t.Errorf("provider status: %q", unavailable.ProviderStatus)
	}
}

func TestRouteEmptyRouteListIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "routes": []}`))
	}))
	defer srv.Close()

	c := NewDirectionsClient(srv.URL, "")
	if _, err := c.Route(context.Background(), domain.Coordinate{}, domain.Coordinate{Lat: 1, Lng: 1}); err == nil {
		t.Fatal("expected failure for empty route list")
	}
}
