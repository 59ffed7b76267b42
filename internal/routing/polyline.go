package routing

import (
	"errors"
	"math"

	"ambulance/internal/domain"
)

// ErrBadPolyline is returned when an encoded polyline is truncated or
// contains bytes outside the encoding alphabet.
var ErrBadPolyline = errors.New("malformed polyline")

// DecodePolyline decodes the compact polyline encoding into a coordinate
// sequence. The input is a stream of 5-bit groups with a continuation
// bit; latitude and longitude are delta-encoded in units of 1e-5 degrees
// and reconstructed incrementally.
func DecodePolyline(encoded string) ([]domain.Coordinate, error) {
	var points []domain.Coordinate
	var lat, lng int64

	i := 0
	readDelta := func() (int64, error) {
		var result int64
		var shift uint
		for {
			if i >= len(encoded) {
				return 0, ErrBadPolyline
			}
			b := int64(encoded[i]) - 63
			if b < 0 {
				return 0, ErrBadPolyline
			}
			i++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return ^(result >> 1), nil
		}
		return result >> 1, nil
	}

	for i < len(encoded) {
		dLat, err := readDelta()
		if err != nil {
			return nil, err
		}
		dLng, err := readDelta()
		if err != nil {
			return nil, err
		}

		lat += dLat
		lng += dLng

		points = append(points, domain.Coordinate{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}

	return points, nil
}

// EncodePolyline encodes a coordinate sequence into the compact polyline
// representation. Inverse of DecodePolyline to within 1e-5 degrees.
func EncodePolyline(points []domain.Coordinate) string {
	var out []byte
	var prevLat, prevLng int64

	writeDelta := func(delta int64) {
		v := delta << 1
		if delta < 0 {
			v = ^v
		}
		for v >= 0x20 {
			out = append(out, byte((0x20|(v&0x1f))+63))
			v >>= 5
		}
		out = append(out, byte(v+63))
	}

	for _, p := range points {
		lat := int64(math.Round(p.Lat * 1e5))
		lng := int64(math.Round(p.Lng * 1e5))
		writeDelta(lat - prevLat)
		writeDelta(lng - prevLng)
		prevLat, prevLng = lat, lng
	}

	return string(out)
}

// BoundsOf derives the enclosing bounding box of a decoded route.
func BoundsOf(points []domain.Coordinate) domain.Bounds {
	if len(points) == 0 {
		return domain.Bounds{}
	}

	b := domain.Bounds{NorthEast: points[0], SouthWest: points[0]}
	for _, p := range points[1:] {
		if p.Lat > b.NorthEast.Lat {
			b.NorthEast.Lat = p.Lat
		}
		if p.Lng > b.NorthEast.Lng {
			b.NorthEast.Lng = p.Lng
		}
		if p.Lat < b.SouthWest.Lat {
			b.SouthWest.Lat = p.Lat
		}
		if p.Lng < b.SouthWest.Lng {
			b.SouthWest.Lng = p.Lng
		}
	}

	return b
}
