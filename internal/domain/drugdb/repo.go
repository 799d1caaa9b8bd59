package drugdb

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SourceRepository stores configured external drug database sources.
type SourceRepository interface {
	Create(ctx context.Context, s *Source) error
	GetByID(ctx context.Context, id uuid.UUID) (*Source, error)
	Update(ctx context.Context, s *Source) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Source, int, error)
	// UpdateSyncState writes only the sync lifecycle fields. A nil
	// lastSyncAt leaves the stored timestamp untouched.
	UpdateSyncState(ctx context.Context, id uuid.UUID, status SyncStatus, lastSyncAt *time.Time) error
}
