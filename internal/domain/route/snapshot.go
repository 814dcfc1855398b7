package route

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a history record of one fetch: what was asked, which backend answered and how it ended.
type Snapshot struct {
	id              uuid.UUID
	deviceID        string
	backend         Backend
	origin          GeoPoint
	destination     GeoPoint
	encodedPolyline string
	pointCount      int
	outcome         Outcome
	errorMessage    string
	createdAt       time.Time
}

// NewSnapshot records the result of a fetch for the given request.
// deviceID is empty for ad-hoc requests that did not come from a tracked device.
func NewSnapshot(deviceID string, spec RequestSpec, encodedPolyline string, result Result) *Snapshot {
	s := &Snapshot{
		id:              uuid.New(),
		deviceID:        deviceID,
		backend:         spec.Backend,
		origin:          spec.Origin,
		destination:     spec.Destination,
		encodedPolyline: encodedPolyline,
		pointCount:      len(result.Points),
		outcome:         result.Outcome(),
		createdAt:       time.Now().UTC(),
	}
	if result.Err != nil {
		s.errorMessage = result.Err.Error()
	}
	return s
}

// ReconstructSnapshot rebuilds a Snapshot from persistence data (no validation).
func ReconstructSnapshot(
	id uuid.UUID,
	deviceID string,
	backend Backend,
	origin GeoPoint,
	destination GeoPoint,
	encodedPolyline string,
	pointCount int,
	outcome Outcome,
	errorMessage string,
	createdAt time.Time,
) *Snapshot {
	return &Snapshot{
		id:              id,
		deviceID:        deviceID,
		backend:         backend,
		origin:          origin,
		destination:     destination,
		encodedPolyline: encodedPolyline,
		pointCount:      pointCount,
		outcome:         outcome,
		errorMessage:    errorMessage,
		createdAt:       createdAt,
	}
}

// ID returns the snapshot identifier.
func (s *Snapshot) ID() uuid.UUID { return s.id }

// DeviceID returns the tracked device, or "" for ad-hoc requests.
func (s *Snapshot) DeviceID() string { return s.deviceID }

// Backend returns the backend that was queried.
func (s *Snapshot) Backend() Backend { return s.backend }

// Origin returns the requested origin.
func (s *Snapshot) Origin() GeoPoint { return s.origin }

// Destination returns the requested destination.
func (s *Snapshot) Destination() GeoPoint { return s.destination }

// EncodedPolyline returns the route re-encoded from the decoded points.
func (s *Snapshot) EncodedPolyline() string { return s.encodedPolyline }

// PointCount returns the number of decoded points.
func (s *Snapshot) PointCount() int { return s.pointCount }

// Outcome returns how the fetch ended.
func (s *Snapshot) Outcome() Outcome { return s.outcome }

// ErrorMessage returns the failure cause, if any.
func (s *Snapshot) ErrorMessage() string { return s.errorMessage }

// CreatedAt returns when the snapshot was recorded.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }
