package route

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeoPoint is an immutable coordinate pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// NewGeoPoint creates a GeoPoint. It does not check ranges; call Validate for that.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Latitude: lat, Longitude: lng}
}

// Validate checks that the point lies within the WGS84 latitude and longitude ranges.
func (p GeoPoint) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", p, err)
	}
	return nil
}

// String formats the point as "lat,lng".
func (p GeoPoint) String() string {
	return fmt.Sprintf("%g,%g", p.Latitude, p.Longitude)
}
