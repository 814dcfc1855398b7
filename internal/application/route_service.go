package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/kafka"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/polyline"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/proto/events"
)

const serviceName = "service-routing"

// RouteFetcher performs one route request. Implementations never return a
// Go error: failures travel in route.Result.Err.
type RouteFetcher interface {
	Fetch(ctx context.Context, spec route.RequestSpec) route.Result
}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// RouteDefaults are applied to requests that leave the corresponding field empty.
type RouteDefaults struct {
	APIKey      string
	Backend     route.Backend
	Destination *route.GeoPoint
	Topic       string
}

// ComputeRouteRequest holds the data needed to compute a route.
type ComputeRouteRequest struct {
	DeviceID    string          `json:"device_id,omitempty"`
	Origin      route.GeoPoint  `json:"origin"`
	Destination *route.GeoPoint `json:"destination,omitempty"`
	Backend     string          `json:"backend,omitempty"`
	APIKey      string          `json:"-"`
}

// RouteDTO is the response representation of a fetched route.
type RouteDTO struct {
	ID              uuid.UUID        `json:"id"`
	DeviceID        string           `json:"device_id,omitempty"`
	Backend         string           `json:"backend"`
	Origin          route.GeoPoint   `json:"origin"`
	Destination     route.GeoPoint   `json:"destination"`
	Points          []route.GeoPoint `json:"points"`
	EncodedPolyline string           `json:"encoded_polyline"`
	PointCount      int              `json:"point_count"`
	DistanceMeters  float64          `json:"distance_meters"`
	Outcome         string           `json:"outcome"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RouteStatsDTO holds aggregate route statistics.
type RouteStatsDTO struct {
	TotalRoutes int64            `json:"total_routes"`
	ByOutcome   map[string]int64 `json:"by_outcome"`
}

// RouteService is the application service orchestrating route use cases.
type RouteService struct {
	fetcher   RouteFetcher
	repo      route.HistoryRepository
	publisher EventPublisher
	defaults  RouteDefaults
	logger    *zap.Logger
}

// NewRouteService creates a new RouteService. A nil publisher disables events.
func NewRouteService(
	fetcher RouteFetcher,
	repo route.HistoryRepository,
	publisher EventPublisher,
	defaults RouteDefaults,
	logger *zap.Logger,
) *RouteService {
	if defaults.Topic == "" {
		defaults.Topic = events.TopicRouteEvents
	}
	return &RouteService{
		fetcher:   fetcher,
		repo:      repo,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// ComputeRoute fetches a route, records it and publishes the outcome.
// Only invalid input yields an error; a failed fetch is reported through
// the DTO's Outcome and Error with no points.
func (s *RouteService) ComputeRoute(ctx context.Context, req ComputeRouteRequest) (*RouteDTO, error) {
	spec, err := s.buildSpec(req)
	if err != nil {
		return nil, err
	}

	result := s.fetcher.Fetch(ctx, spec)
	if result.Points == nil {
		result.Points = []route.GeoPoint{}
	}

	snapshot := route.NewSnapshot(req.DeviceID, spec, polyline.Encode(result.Points), result)

	// The caller may have gone away; the history and events still describe what happened.
	recordCtx := context.WithoutCancel(ctx)
	if err := s.repo.Save(recordCtx, snapshot); err != nil {
		s.logger.Error("failed to save route snapshot",
			zap.String("route_id", snapshot.ID().String()),
			zap.Error(err),
		)
	}
	s.publishOutcome(recordCtx, snapshot)

	dto := toRouteDTO(snapshot, result.Points)
	return &dto, nil
}

// GetRoute returns one recorded route.
func (s *RouteService) GetRoute(ctx context.Context, id uuid.UUID) (*RouteDTO, error) {
	snapshot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto, err := s.historyDTO(snapshot)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListRoutes returns a paginated list of all recorded routes (admin).
func (s *RouteService) ListRoutes(ctx context.Context, page, limit int) ([]RouteDTO, int64, error) {
	snapshots, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}
	dtos, err := s.historyDTOs(snapshots)
	if err != nil {
		return nil, 0, err
	}
	return dtos, total, nil
}

// ListDeviceRoutes returns a paginated list of the routes recorded for one device.
func (s *RouteService) ListDeviceRoutes(ctx context.Context, deviceID string, page, limit int) (domain.PaginatedResult[RouteDTO], error) {
	snapshots, total, err := s.repo.FindByDeviceID(ctx, deviceID, page, limit)
	if err != nil {
		return domain.PaginatedResult[RouteDTO]{}, fmt.Errorf("failed to list device routes: %w", err)
	}
	dtos, err := s.historyDTOs(snapshots)
	if err != nil {
		return domain.PaginatedResult[RouteDTO]{}, err
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

// GetRouteStats returns route counts by outcome (admin). Every known outcome is present.
func (s *RouteService) GetRouteStats(ctx context.Context) (*RouteStatsDTO, error) {
	counts, err := s.repo.CountByOutcome(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get route stats: %w", err)
	}

	byOutcome := make(map[string]int64, len(route.Outcomes))
	for _, o := range route.Outcomes {
		byOutcome[string(o)] = 0
	}
	var total int64
	for outcome, c := range counts {
		byOutcome[outcome] = c
		total += c
	}

	return &RouteStatsDTO{
		TotalRoutes: total,
		ByOutcome:   byOutcome,
	}, nil
}

// --- Helpers ---

func (s *RouteService) buildSpec(req ComputeRouteRequest) (route.RequestSpec, error) {
	destination := req.Destination
	if destination == nil {
		destination = s.defaults.Destination
	}
	if destination == nil {
		return route.RequestSpec{}, domain.NewValidationError("destination is required")
	}

	backend := s.defaults.Backend
	if req.Backend != "" {
		b, err := route.ParseBackend(req.Backend)
		if err != nil {
			return route.RequestSpec{}, domain.NewValidationError(err.Error())
		}
		backend = b
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.defaults.APIKey
	}

	spec, err := route.NewRequestSpec(req.Origin, *destination, apiKey, backend)
	if err != nil {
		return route.RequestSpec{}, domain.NewValidationError(err.Error())
	}
	return spec, nil
}

func (s *RouteService) historyDTOs(snapshots []*route.Snapshot) ([]RouteDTO, error) {
	dtos := make([]RouteDTO, len(snapshots))
	for i, snap := range snapshots {
		dto, err := s.historyDTO(snap)
		if err != nil {
			return nil, err
		}
		dtos[i] = dto
	}
	return dtos, nil
}

// historyDTO rebuilds the points from the stored polyline.
func (s *RouteService) historyDTO(snapshot *route.Snapshot) (RouteDTO, error) {
	points, err := polyline.Decode(snapshot.EncodedPolyline())
	if err != nil {
		return RouteDTO{}, fmt.Errorf("stored polyline of route %s: %w", snapshot.ID(), err)
	}
	return toRouteDTO(snapshot, points), nil
}

func toRouteDTO(snapshot *route.Snapshot, points []route.GeoPoint) RouteDTO {
	return RouteDTO{
		ID:              snapshot.ID(),
		DeviceID:        snapshot.DeviceID(),
		Backend:         string(snapshot.Backend()),
		Origin:          snapshot.Origin(),
		Destination:     snapshot.Destination(),
		Points:          points,
		EncodedPolyline: snapshot.EncodedPolyline(),
		PointCount:      snapshot.PointCount(),
		DistanceMeters:  route.PathLength(points),
		Outcome:         string(snapshot.Outcome()),
		Error:           snapshot.ErrorMessage(),
		CreatedAt:       snapshot.CreatedAt(),
	}
}

func (s *RouteService) publishOutcome(ctx context.Context, snapshot *route.Snapshot) {
	now := time.Now().UTC()
	// Keyed by device so one device's events stay ordered.
	subject := snapshot.DeviceID()
	if subject == "" {
		subject = snapshot.ID().String()
	}
	if snapshot.Outcome().IsFailure() {
		s.publishEvent(ctx, events.RouteFailed, subject, events.RouteFailedEvent{
			RouteID:    snapshot.ID(),
			DeviceID:   snapshot.DeviceID(),
			Backend:    string(snapshot.Backend()),
			Outcome:    string(snapshot.Outcome()),
			Error:      snapshot.ErrorMessage(),
			OccurredAt: now,
		})
		return
	}

	s.publishEvent(ctx, events.RouteComputed, subject, events.RouteComputedEvent{
		RouteID:         snapshot.ID(),
		DeviceID:        snapshot.DeviceID(),
		Backend:         string(snapshot.Backend()),
		OriginLat:       snapshot.Origin().Latitude,
		OriginLng:       snapshot.Origin().Longitude,
		DestinationLat:  snapshot.Destination().Latitude,
		DestinationLng:  snapshot.Destination().Longitude,
		EncodedPolyline: snapshot.EncodedPolyline(),
		PointCount:      snapshot.PointCount(),
		Outcome:         string(snapshot.Outcome()),
		OccurredAt:      now,
	})
}

func (s *RouteService) publishEvent(ctx context.Context, eventType, subject string, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(serviceName, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, s.defaults.Topic, cloudEvent.WithSubject(subject)); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.defaults.Topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
