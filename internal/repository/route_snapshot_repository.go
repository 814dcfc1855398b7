package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

// RouteSnapshotModel is the GORM model for the route_snapshots table.
type RouteSnapshotModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID        string    `gorm:"size:100;index;not null;default:''"`
	Backend         string    `gorm:"size:20;not null"`
	OriginLat       float64   `gorm:"not null"`
	OriginLng       float64   `gorm:"not null"`
	DestinationLat  float64   `gorm:"not null"`
	DestinationLng  float64   `gorm:"not null"`
	EncodedPolyline string    `gorm:"type:text;not null;default:''"`
	PointCount      int       `gorm:"not null;default:0"`
	Outcome         string    `gorm:"size:30;index;not null"`
	ErrorMessage    string    `gorm:"size:1000;not null;default:''"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (RouteSnapshotModel) TableName() string {
	return "route_snapshots"
}

// GormRouteSnapshotRepository is the GORM-based implementation of route.HistoryRepository.
type GormRouteSnapshotRepository struct {
	db *gorm.DB
}

// NewGormRouteSnapshotRepository creates a new GormRouteSnapshotRepository.
func NewGormRouteSnapshotRepository(db *gorm.DB) *GormRouteSnapshotRepository {
	return &GormRouteSnapshotRepository{db: db}
}

// Save persists a new snapshot.
func (r *GormRouteSnapshotRepository) Save(ctx context.Context, s *route.Snapshot) error {
	if err := r.db.WithContext(ctx).Create(toSnapshotModel(s)).Error; err != nil {
		return fmt.Errorf("failed to save route snapshot: %w", err)
	}
	return nil
}

// FindByID retrieves a snapshot by its unique identifier.
func (r *GormRouteSnapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*route.Snapshot, error) {
	var model RouteSnapshotModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Route", id.String())
		}
		return nil, fmt.Errorf("failed to find route snapshot by ID: %w", err)
	}
	return toDomainSnapshot(&model), nil
}

// FindByDeviceID retrieves snapshots for a device with pagination.
func (r *GormRouteSnapshotRepository) FindByDeviceID(ctx context.Context, deviceID string, page, limit int) ([]*route.Snapshot, int64, error) {
	return r.list(ctx, r.db.Where("device_id = ?", deviceID), page, limit)
}

// ListAll retrieves all snapshots with pagination (admin).
func (r *GormRouteSnapshotRepository) ListAll(ctx context.Context, page, limit int) ([]*route.Snapshot, int64, error) {
	return r.list(ctx, r.db, page, limit)
}

// CountByOutcome returns snapshot counts grouped by outcome (admin).
func (r *GormRouteSnapshotRepository) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	type outcomeCount struct {
		Outcome string
		Count   int64
	}
	var results []outcomeCount
	if err := r.db.WithContext(ctx).Model(&RouteSnapshotModel{}).
		Select("outcome, count(*) as count").
		Group("outcome").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by outcome: %w", err)
	}

	counts := make(map[string]int64)
	for _, oc := range results {
		counts[oc.Outcome] = oc.Count
	}
	return counts, nil
}

func (r *GormRouteSnapshotRepository) list(ctx context.Context, scope *gorm.DB, page, limit int) ([]*route.Snapshot, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).WithContext(ctx).Model(&RouteSnapshotModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count route snapshots: %w", err)
	}

	var models []RouteSnapshotModel
	offset := (page - 1) * limit
	if err := scope.Session(&gorm.Session{}).WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list route snapshots: %w", err)
	}

	snapshots := make([]*route.Snapshot, len(models))
	for i := range models {
		snapshots[i] = toDomainSnapshot(&models[i])
	}
	return snapshots, total, nil
}

// --- Conversion Helpers ---

func toSnapshotModel(s *route.Snapshot) *RouteSnapshotModel {
	return &RouteSnapshotModel{
		ID:              s.ID(),
		DeviceID:        s.DeviceID(),
		Backend:         string(s.Backend()),
		OriginLat:       s.Origin().Latitude,
		OriginLng:       s.Origin().Longitude,
		DestinationLat:  s.Destination().Latitude,
		DestinationLng:  s.Destination().Longitude,
		EncodedPolyline: s.EncodedPolyline(),
		PointCount:      s.PointCount(),
		Outcome:         string(s.Outcome()),
		ErrorMessage:    truncate(s.ErrorMessage(), 1000),
		CreatedAt:       s.CreatedAt(),
	}
}

func toDomainSnapshot(m *RouteSnapshotModel) *route.Snapshot {
	return route.ReconstructSnapshot(
		m.ID,
		m.DeviceID,
		route.Backend(m.Backend),
		route.GeoPoint{Latitude: m.OriginLat, Longitude: m.OriginLng},
		route.GeoPoint{Latitude: m.DestinationLat, Longitude: m.DestinationLng},
		m.EncodedPolyline,
		m.PointCount,
		route.Outcome(m.Outcome),
		m.ErrorMessage,
		m.CreatedAt,
	)
}

// truncate keeps at most n runes of s and replaces invalid UTF-8, which Postgres text columns reject.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
