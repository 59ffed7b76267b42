package tripapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ambulance/internal/domain"
)

func TestFetchActiveNoTripIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "message": "no active trip", "trip": null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	trip, err := c.FetchActive(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if trip != nil {
		t.Fatal("expected nil trip")
	}
}

func TestFetchActiveMapsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("authorization header: %q", got)
		}
		w.Write([]byte(`{
			"status": "success",
			"trip": {
				"id": "t1", "driver_id": "d1", "ambulance_id": "a1",
				"status": "accepted",
				"pickup_lat": 12.973, "pickup_lng": 77.595,
				"drop_lat": 12.990, "drop_lng": 77.610,
				"requested_at": "2026-08-30T10:00:00Z",
				"accepted_at": "2026-08-30T10:01:00Z"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	trip, err := c.FetchActive(context.Background(), "d1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if trip.Status != domain.TripStatusAccepted {
		t.Errorf("status: %s", trip.Status)
	}
	if trip.Pickup.Lat != 12.973 || trip.Drop.Lng != 77.610 {
		t.Errorf("coordinates: %+v %+v", trip.Pickup, trip.Drop)
	}
	if trip.AcceptedAt.IsZero() {
		t.Error("accepted_at not mapped")
	}
}

func TestVerifyOTPRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "message": "otp mismatch", "code": "otp_mismatch"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	_, err := c.VerifyOTP(context.Background(), "t1", "9999")
	if !errors.Is(err, ErrOTPRejected) {
		t.Fatalf("expected ErrOTPRejected, got %v", err)
	}
}

func TestVerifyOTPSuccessAdvancesTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/trips/t1/verify-otp" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "success",
			"trip": {"id": "t1", "driver_id": "d1", "status": "in_progress", "requested_at": "2026-08-30T10:00:00Z"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	trip, err := c.VerifyOTP(context.Background(), "t1", "1234")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("status: %s", trip.Status)
	}
}
