// Package polyline implements the encoded polyline algorithm format used by
// Google's routing APIs: fixed 1e5 precision, zig-zag signed deltas, and
// 5-bit chunks offset by 63 with a 0x20 continuation bit.
package polyline

import (
	"errors"
	"fmt"
	"math"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

// Precision is the fixed scale between degrees and the encoded integers.
const Precision = 1e5

const (
	charOffset   = 63
	minChar      = charOffset
	maxChar      = charOffset + 0x3f
	chunkMask    = 0x1f
	continueBit  = 0x20
	maxChunkLen  = 12 // 60 bits, far beyond any coordinate delta
	avgPointSize = 8
)

var (
	// ErrTruncated means the input ended in the middle of a coordinate.
	ErrTruncated = errors.New("polyline: unexpected end of input")
	// ErrInvalidChar means a byte outside the polyline alphabet was found.
	ErrInvalidChar = errors.New("polyline: invalid character")
	// ErrOverflow means a chunk was longer than any valid value can be.
	ErrOverflow = errors.New("polyline: value overflow")
)

// DecodeError reports where decoding stopped and why.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Outcome classifies decode failures for result reporting.
func (e *DecodeError) Outcome() route.Outcome { return route.OutcomeDecodeError }

// Decode turns an encoded polyline into points in path order.
// Malformed input returns a *DecodeError; partial output is never returned.
func Decode(encoded string) ([]route.GeoPoint, error) {
	points := make([]route.GeoPoint, 0, len(encoded)/avgPointSize)

	var lat, lng int64
	for i := 0; i < len(encoded); {
		dlat, n, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		i += n

		dlng, n, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		i += n

		lat += dlat
		lng += dlng
		points = append(points, route.GeoPoint{
			Latitude:  float64(lat) / Precision,
			Longitude: float64(lng) / Precision,
		})
	}
	return points, nil
}

// decodeValue reads one chunk starting at start and returns the signed value
// and the number of bytes consumed.
func decodeValue(s string, start int) (int64, int, error) {
	var result uint64
	var shift uint
	for i := start; ; i++ {
		if i >= len(s) {
			return 0, 0, &DecodeError{Offset: i, Err: ErrTruncated}
		}
		if i-start >= maxChunkLen {
			return 0, 0, &DecodeError{Offset: i, Err: ErrOverflow}
		}
		c := s[i]
		if c < minChar || c > maxChar {
			return 0, 0, &DecodeError{Offset: i, Err: ErrInvalidChar}
		}

		b := uint64(c - charOffset)
		result |= (b & chunkMask) << shift
		shift += 5
		if b < continueBit {
			return unzigzag(result), i - start + 1, nil
		}
	}
}

// Encode turns points into an encoded polyline. Coordinates are rounded to 5 decimals.
func Encode(points []route.GeoPoint) string {
	buf := make([]byte, 0, len(points)*avgPointSize)

	var prevLat, prevLng int64
	for _, p := range points {
		lat := toFixed(p.Latitude)
		lng := toFixed(p.Longitude)
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

func appendValue(buf []byte, v int64) []byte {
	u := zigzag(v)
	for u >= continueBit {
		buf = append(buf, byte((continueBit|(u&chunkMask))+charOffset))
		u >>= 5
	}
	return append(buf, byte(u+charOffset))
}

func toFixed(deg float64) int64 {
	return int64(math.Round(deg * Precision))
}

func zigzag(v int64) uint64 {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	return u
}

func unzigzag(u uint64) int64 {
	if u&1 != 0 {
		return ^int64(u >> 1)
	}
	return int64(u >> 1)
}
