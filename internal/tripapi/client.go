package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ambulance/internal/domain"
)

// requestTimeout bounds each trip API call.
const requestTimeout = 10 * time.Second

// ErrOTPRejected is returned when the server declines the submitted OTP.
// Recoverable: the trip stays in arrived and the driver may retry.
var ErrOTPRejected = errors.New("otp verification failed")

// Client talks to the dispatch server's trip endpoints.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a trip API client authenticated with the driver's
// bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// envelope is the server's uniform response wrapper: a status
// discriminator plus a message, with the trip payload when present.
type envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Trip    *tripPayload `json:"trip"`
}

type tripPayload struct {
	ID          string     `json:"id"`
	DriverID    string     `json:"driver_id"`
	AmbulanceID string     `json:"ambulance_id"`
	Status      string     `json:"status"`
	PickupLat   float64    `json:"pickup_lat"`
	PickupLng   float64    `json:"pickup_lng"`
	DropLat     float64    `json:"drop_lat"`
	DropLng     float64    `json:"drop_lng"`
	RequestedAt time.Time  `json:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	ArrivedAt   *time.Time `json:"arrived_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
}

func (p *tripPayload) toDomain() *domain.Trip {
	if p == nil {
		return nil
	}
	t := &domain.Trip{
		ID:          p.ID,
		DriverID:    p.DriverID,
		AmbulanceID: p.AmbulanceID,
		Status:      domain.TripStatus(p.Status),
		Pickup:      domain.Coordinate{Lat: p.PickupLat, Lng: p.PickupLng},
		Drop:        domain.Coordinate{Lat: p.DropLat, Lng: p.DropLng},
		RequestedAt: p.RequestedAt,
	}
	setIf := func(dst *time.Time, src *time.Time) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&t.AcceptedAt, p.AcceptedAt)
	setIf(&t.ArrivedAt, p.ArrivedAt)
	setIf(&t.StartedAt, p.StartedAt)
	setIf(&t.CompletedAt, p.CompletedAt)
	setIf(&t.CancelledAt, p.CancelledAt)
	setIf(&t.ExpiredAt, p.ExpiredAt)
	return t
}

// FetchActive returns the driver's current trip, or nil when none
// exists. An empty result is not an error.
func (c *Client) FetchActive(ctx context.Context, driverID string) (*domain.Trip, error) {
	env, err := c.do(ctx, http.MethodGet, "/v1/trips/active?driver_id="+driverID, nil)
	if err != nil {
		return nil, err
	}
	return env.Trip.toDomain(), nil
}

// MarkArrived reports arrival at the pickup point and returns the
// server's view of the trip.
func (c *Client) MarkArrived(ctx context.Context, tripID string) (*domain.Trip, error) {
	env, err := c.do(ctx, http.MethodPost, "/v1/trips/"+tripID+"/arrived", nil)
	if err != nil {
		return nil, err
	}
	return env.Trip.toDomain(), nil
}

// VerifyOTP submits the patient's code. A server-side rejection comes
// back as ErrOTPRejected with the trip unchanged.
func (c *Client) VerifyOTP(ctx context.Context, tripID, otp string) (*domain.Trip, error) {
	body := map[string]string{"otp": otp}
	env, err := c.do(ctx, http.MethodPost, "/v1/trips/"+tripID+"/verify-otp", body)
	if err != nil {
		return nil, err
	}
	return env.Trip.toDomain(), nil
}

// Complete finishes the trip after the driver's explicit confirmation.
func (c *Client) Complete(ctx context.Context, tripID string) (*domain.Trip, error) {
	env, err := c.do(ctx, http.MethodPost, "/v1/trips/"+tripID+"/complete", nil)
	if err != nil {
		return nil, err
	}
	return env.Trip.toDomain(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tripapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("tripapi: decode response: %w", err)
	}

	if env.Status != "success" {
		if env.Code == "otp_mismatch" {
			return nil, ErrOTPRejected
		}
		return nil, fmt.Errorf("tripapi: %s", env.Message)
	}

	return &env, nil
}
