package interaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilters narrows interaction catalog listings.
type ListFilters struct {
	DrugAID  *uuid.UUID
	DrugBID  *uuid.UUID
	Severity Severity
	Type     InteractionType
	Limit    int
	Offset   int
}

// KnownInteractionRepository stores the curated interaction catalog.
type KnownInteractionRepository interface {
	Create(ctx context.Context, k *KnownInteraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*KnownInteraction, error)
	// FindByPair resolves the record for an unordered pair, checking both
	// orderings. Returns (nil, nil) when no record exists.
	FindByPair(ctx context.Context, drugAID, drugBID uuid.UUID) (*KnownInteraction, error)
	Update(ctx context.Context, k *KnownInteraction) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters ListFilters) ([]*KnownInteraction, int, error)
	Count(ctx context.Context) (int, error)
	CountBySeverity(ctx context.Context) (map[Severity]int, error)
	CountByType(ctx context.Context) (map[InteractionType]int, error)
}

// CheckResultRepository stores completed interaction checks.
type CheckResultRepository interface {
	Create(ctx context.Context, r *CheckResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*CheckResult, error)
	// ListByPatient returns a patient's checks, newest first. A zero-value
	// status means no status filter.
	ListByPatient(ctx context.Context, patientID uuid.UUID, status CheckStatus, limit, offset int) ([]*CheckResult, int, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[CheckStatus]int, error)
}
