package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the read surface over the medication catalog.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	// GetByIDs returns the medications that exist for the given IDs.
	// Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Medication, error)
	// SearchByName returns active medications whose name or generic name
	// contains the fragment, case-insensitively.
	SearchByName(ctx context.Context, fragment string) ([]*Medication, error)
}
