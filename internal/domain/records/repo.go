package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound signals that a requested record does not exist.
var ErrNotFound = errors.New("not found")

// PrescriptionRepository is the read surface over the prescription store.
type PrescriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// ListRecentByPatient returns the patient's active and completed
	// prescriptions, excluding excludeID, most recently prescribed first,
	// capped at limit.
	ListRecentByPatient(ctx context.Context, patientID, excludeID uuid.UUID, limit int) ([]*Prescription, error)
}

// AllergyRepository is the read surface over patient allergy records.
type AllergyRepository interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error)
	// ListSubstancesByPatient returns just the allergy substance strings.
	ListSubstancesByPatient(ctx context.Context, patientID uuid.UUID) ([]string, error)
}
