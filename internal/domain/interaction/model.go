package interaction

import (
	"time"

	"github.com/google/uuid"
)

// KnownInteraction is a curated catalog record for an unordered medication
// pair. At most one record exists per pair, in either order.
type KnownInteraction struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	DrugAID          uuid.UUID       `db:"drug_a_id" json:"drugAId"`
	DrugBID          uuid.UUID       `db:"drug_b_id" json:"drugBId"`
	Type             InteractionType `db:"interaction_type" json:"interactionType"`
	Severity         Severity        `db:"severity" json:"severity"`
	Description      string          `db:"description" json:"description"`
	ClinicalEffects  *string         `db:"clinical_effects" json:"clinicalEffects,omitempty"`
	ManagementAdvice *string         `db:"management_advice" json:"managementAdvice,omitempty"`
	Source           string          `db:"source" json:"source"`
	LastUpdated      time.Time       `db:"last_updated" json:"lastUpdated"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// DrugRef identifies one side of a finding.
type DrugRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Candidate is a single interaction finding, either backed by a catalog
// record or inferred by a heuristic rule. DrugB is nil for patient-allergy
// findings, which are single-drug hazards.
type Candidate struct {
	DrugA            DrugRef         `json:"drugA"`
	DrugB            *DrugRef        `json:"drugB,omitempty"`
	Type             InteractionType `json:"interactionType"`
	Severity         Severity        `json:"severity"`
	Description      string          `json:"description"`
	ClinicalEffects  *string         `json:"clinicalEffects,omitempty"`
	ManagementAdvice *string         `json:"managementAdvice,omitempty"`
	Source           string          `json:"source"`
}

// CheckResult is the persisted outcome of one check invocation. Records are
// immutable; re-evaluation creates a new check.
type CheckResult struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	PrescriptionID *uuid.UUID  `db:"prescription_id" json:"prescriptionId,omitempty"`
	PatientID      *uuid.UUID  `db:"patient_id" json:"patientId,omitempty"`
	MedicationIDs  []uuid.UUID `db:"medication_ids" json:"medicationIds"`
	Interactions   []Candidate `db:"interactions" json:"interactions"`
	Status         CheckStatus `db:"status" json:"status"`
	Warnings       []string    `db:"warnings" json:"warnings"`
	CriticalAlerts []string    `db:"critical_alerts" json:"criticalAlerts"`
	CheckedAt      time.Time   `db:"checked_at" json:"checkedAt"`
	CheckedBy      string      `db:"checked_by" json:"checkedBy"`
}

// Summary aggregates a finding list into counts and derived alert lists.
type Summary struct {
	Total          int                     `json:"total"`
	BySeverity     map[Severity]int        `json:"bySeverity"`
	ByType         map[InteractionType]int `json:"byType"`
	CriticalAlerts []string                `json:"criticalAlerts"`
	Warnings       []string                `json:"warnings"`
}

// Statistics is the read-only catalog and check-outcome aggregation.
type Statistics struct {
	TotalInteractions int                     `json:"totalInteractions"`
	BySeverity        map[Severity]int        `json:"bySeverity"`
	ByType            map[InteractionType]int `json:"byType"`
	ChecksLast30Days  map[CheckStatus]int     `json:"checksLast30Days"`
	GeneratedAt       time.Time               `json:"generatedAt"`
}
