package records

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table. Owned by the prescribing
// workflow; the interaction engine only reads it.
type Prescription struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patientId"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medicationId"`
	PrescriberID *uuid.UUID `db:"prescriber_id" json:"prescriberId,omitempty"`
	Status       string     `db:"status" json:"status"`
	Dosage       *string    `db:"dosage" json:"dosage,omitempty"`
	Frequency    *string    `db:"frequency" json:"frequency,omitempty"`
	PrescribedAt time.Time  `db:"prescribed_at" json:"prescribedAt"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Prescription statuses considered part of a patient's current regimen.
const (
	PrescriptionActive    = "active"
	PrescriptionCompleted = "completed"
	PrescriptionCancelled = "cancelled"
	PrescriptionDraft     = "draft"
)

// Allergy is a recorded patient allergy.
type Allergy struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patientId"`
	Substance string    `db:"substance" json:"substance"`
	Reaction  *string   `db:"reaction" json:"reaction,omitempty"`
	Severity  *string   `db:"severity" json:"severity,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
