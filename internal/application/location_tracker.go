package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

// RouteComputer computes a route for a request.
type RouteComputer interface {
	ComputeRoute(ctx context.Context, req ComputeRouteRequest) (*RouteDTO, error)
}

// LocationSample is one reported position of a device.
type LocationSample struct {
	DeviceID   string         `json:"device_id"`
	Point      route.GeoPoint `json:"point"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// DeviceRoute is the route currently shown for a device: its last reported
// position and the route from there to the destination.
type DeviceRoute struct {
	DeviceID  string         `json:"device_id"`
	Position  route.GeoPoint `json:"position"`
	Route     RouteDTO       `json:"route"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type deviceState struct {
	generation uint64
	origin     route.GeoPoint
	hasOrigin  bool
	cancel     context.CancelFunc
	latest     *DeviceRoute
}

// LocationTracker turns a stream of location samples into routes.
//
// For each device the most recent sample wins: a new sample cancels the
// fetch still running for that device and a result from an older sample is
// never applied. Devices do not wait on each other.
type LocationTracker struct {
	ctx      context.Context
	computer RouteComputer
	logger   *zap.Logger

	mu      sync.Mutex
	devices map[string]*deviceState
	wg      sync.WaitGroup
}

// NewLocationTracker creates a LocationTracker. Fetches run under ctx, so
// cancelling it aborts every in-flight fetch.
func NewLocationTracker(ctx context.Context, computer RouteComputer, logger *zap.Logger) *LocationTracker {
	return &LocationTracker{
		ctx:      ctx,
		computer: computer,
		logger:   logger,
		devices:  make(map[string]*deviceState),
	}
}

// Track starts a fetch for the sample. It returns false without fetching when
// the sample repeats the device's current origin.
func (t *LocationTracker) Track(sample LocationSample) (bool, error) {
	if sample.DeviceID == "" {
		return false, domain.NewValidationError("device id is required")
	}
	if err := sample.Point.Validate(); err != nil {
		return false, domain.NewValidationError(fmt.Sprintf("point: %v", err))
	}

	t.mu.Lock()
	st, ok := t.devices[sample.DeviceID]
	if !ok {
		st = &deviceState{}
		t.devices[sample.DeviceID] = st
	}
	if st.hasOrigin && st.origin == sample.Point {
		t.mu.Unlock()
		return false, nil
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.generation++
	gen := st.generation
	st.origin = sample.Point
	st.hasOrigin = true
	ctx, cancel := context.WithCancel(t.ctx)
	st.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	go t.run(ctx, cancel, sample, gen)
	return true, nil
}

// Latest returns the most recently applied route for a device.
func (t *LocationTracker) Latest(deviceID string) (DeviceRoute, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.devices[deviceID]
	if !ok || st.latest == nil {
		return DeviceRoute{}, false
	}
	return *st.latest, true
}

// Wait blocks until every started fetch has finished.
func (t *LocationTracker) Wait() {
	t.wg.Wait()
}

func (t *LocationTracker) run(ctx context.Context, cancel context.CancelFunc, sample LocationSample, gen uint64) {
	defer t.wg.Done()
	defer cancel()

	dto, err := t.computer.ComputeRoute(ctx, ComputeRouteRequest{
		DeviceID: sample.DeviceID,
		Origin:   sample.Point,
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.devices[sample.DeviceID]
	if st.generation != gen {
		t.logger.Debug("discarding superseded route",
			zap.String("device_id", sample.DeviceID),
			zap.Uint64("generation", gen),
			zap.Uint64("latest_generation", st.generation),
		)
		return
	}
	st.cancel = nil

	// A sample that produced nothing may be retried with the same coordinates.
	if err != nil {
		st.hasOrigin = false
		t.logger.Warn("failed to compute device route",
			zap.String("device_id", sample.DeviceID),
			zap.Error(err),
		)
		return
	}
	outcome := route.Outcome(dto.Outcome)
	if outcome == route.OutcomeCancelled {
		st.hasOrigin = false
		return
	}
	if outcome.IsFailure() {
		st.hasOrigin = false
	}

	st.latest = &DeviceRoute{
		DeviceID:  sample.DeviceID,
		Position:  sample.Point,
		Route:     *dto,
		UpdatedAt: time.Now().UTC(),
	}
}
