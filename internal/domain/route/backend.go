package route

import "fmt"

// Backend identifies which routing API shape a request targets.
type Backend string

const (
	// BackendLegacy is the query-string Directions API returning overview_polyline.points.
	BackendLegacy Backend = "legacy"
	// BackendRoutesV2 is the JSON computeRoutes API returning polyline.encodedPolyline.
	BackendRoutesV2 Backend = "routes_v2"
)

// IsValid returns true if the backend is a recognized variant.
func (b Backend) IsValid() bool {
	switch b {
	case BackendLegacy, BackendRoutesV2:
		return true
	default:
		return false
	}
}

// ParseBackend converts a string to a Backend.
func ParseBackend(s string) (Backend, error) {
	b := Backend(s)
	if !b.IsValid() {
		return "", fmt.Errorf("unknown route backend: %q", s)
	}
	return b, nil
}
