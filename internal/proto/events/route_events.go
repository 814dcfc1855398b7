package events

import (
	"time"

	"github.com/google/uuid"
)

// Default topic names.
const (
	TopicRouteEvents     = "route.events"
	TopicDeviceLocations = "device.locations"
)

// Event types published on TopicRouteEvents.
const (
	RouteComputed = "route.computed"
	RouteFailed   = "route.failed"
)

// DeviceLocationReported is the event type consumed from TopicDeviceLocations.
const DeviceLocationReported = "device.location.reported"

// RouteComputedEvent is emitted when a fetch returns a route or a definite "no route".
type RouteComputedEvent struct {
	RouteID         uuid.UUID `json:"route_id"`
	DeviceID        string    `json:"device_id,omitempty"`
	Backend         string    `json:"backend"`
	OriginLat       float64   `json:"origin_lat"`
	OriginLng       float64   `json:"origin_lng"`
	DestinationLat  float64   `json:"destination_lat"`
	DestinationLng  float64   `json:"destination_lng"`
	EncodedPolyline string    `json:"encoded_polyline"`
	PointCount      int       `json:"point_count"`
	Outcome         string    `json:"outcome"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// RouteFailedEvent is emitted when a fetch fails. Consumers that only look at
// points see an empty route; this event carries the cause.
type RouteFailedEvent struct {
	RouteID    uuid.UUID `json:"route_id"`
	DeviceID   string    `json:"device_id,omitempty"`
	Backend    string    `json:"backend"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DeviceLocationEvent is one location sample reported by a device.
type DeviceLocationEvent struct {
	DeviceID   string    `json:"device_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}
