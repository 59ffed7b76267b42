package routing

import (
	"math"
	"testing"

	"ambulance/internal/domain"
)

// Reference sequence from the polyline algorithm documentation.
func TestDecodePolylineReference(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []domain.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(points))
	}
	for i := range want {
		if math.Abs(points[i].Lat-want[i].Lat) > 1e-5 || math.Abs(points[i].Lng-want[i].Lng) > 1e-5 {
			t.Errorf("point %d: got %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	original := []domain.Coordinate{
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: 12.9730, Lng: 77.5950},
		{Lat: 12.9812, Lng: 77.6011},
		{Lat: -0.00001, Lng: 0.00001},
		{Lat: 85.12345, Lng: -179.99999},
	}

	decoded, err := DecodePolyline(EncodePolyline(original))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(decoded) != len(original) {
		t.Fatalf("expected %d points, got %d", len(original), len(decoded))
	}
	for i := range original {
		if math.Abs(decoded[i].Lat-original[i].Lat) > 1e-5 || math.Abs(decoded[i].Lng-original[i].Lng) > 1e-5 {
			t.Errorf("point %d: got %+v, want %+v", i, decoded[i], original[i])
		}
	}
}

func TestDecodePolylineEmpty(t *testing.T) {
	points, err := DecodePolyline("")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %d", len(points))
	}
}

func TestDecodePolylineTruncated(t *testing.T) {
	// A continuation bit with no following byte.
	if _, err := DecodePolyline("_p~iF~ps|U_"); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestBoundsOf(t *testing.T) {
	points := []domain.Coordinate{
		{Lat: 12.97, Lng: 77.59},
		{Lat: 13.01, Lng: 77.55},
		{Lat: 12.90, Lng: 77.62},
	}

	b := BoundsOf(points)
	if b.NorthEast.Lat != 13.01 || b.NorthEast.Lng != 77.62 {
		t.Errorf("northeast: %+v", b.NorthEast)
	}
	if b.SouthWest.Lat != 12.90 || b.SouthWest.Lng != 77.55 {
		t.Errorf("southwest: %+v", b.SouthWest)
	}
}
