package route

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepository defines the persistence contract for route snapshots.
type HistoryRepository interface {
	// Save persists a new snapshot.
	Save(ctx context.Context, snapshot *Snapshot) error

	// FindByID retrieves a snapshot by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)

	// FindByDeviceID retrieves snapshots recorded for a device, newest first, with pagination.
	FindByDeviceID(ctx context.Context, deviceID string, page, limit int) ([]*Snapshot, int64, error)

	// ListAll retrieves all snapshots, newest first, with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Snapshot, int64, error)

	// CountByOutcome returns snapshot counts grouped by outcome.
	CountByOutcome(ctx context.Context) (map[string]int64, error)
}
