package route

import (
	"errors"
	"fmt"
)

// RequestSpec describes one route request. It is built per request and never mutated.
type RequestSpec struct {
	Origin      GeoPoint
	Destination GeoPoint
	APIKey      string
	Backend     Backend
}

// NewRequestSpec validates its inputs and returns a RequestSpec.
func NewRequestSpec(origin, destination GeoPoint, apiKey string, backend Backend) (RequestSpec, error) {
	if err := origin.Validate(); err != nil {
		return RequestSpec{}, fmt.Errorf("origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return RequestSpec{}, fmt.Errorf("destination: %w", err)
	}
	if apiKey == "" {
		return RequestSpec{}, errors.New("api key is required")
	}
	if !backend.IsValid() {
		return RequestSpec{}, fmt.Errorf("unknown route backend: %q", backend)
	}
	return RequestSpec{
		Origin:      origin,
		Destination: destination,
		APIKey:      apiKey,
		Backend:     backend,
	}, nil
}
