package interaction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medsafe/medsafe/internal/domain/catalog"
	"github.com/medsafe/medsafe/internal/domain/records"
)

// Maximum number of other prescriptions folded into a prescription check.
// Bounds the pairwise cost for patients with long medication histories.
const maxHistoryPrescriptions = 10

// MedicationCatalog is the catalog read surface the service depends on.
type MedicationCatalog interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Medication, error)
}

// PrescriptionStore is the prescription read surface the service depends on.
type PrescriptionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*records.Prescription, error)
	ListRecentByPatient(ctx context.Context, patientID, excludeID uuid.UUID, limit int) ([]*records.Prescription, error)
}

// Service orchestrates interaction checks and owns catalog CRUD.
type Service struct {
	interactions  KnownInteractionRepository
	checks        CheckResultRepository
	medications   MedicationCatalog
	prescriptions PrescriptionStore
	checker       *Checker
}

// NewService creates the interactions service.
func NewService(
	interactions KnownInteractionRepository,
	checks CheckResultRepository,
	medications MedicationCatalog,
	prescriptions PrescriptionStore,
	checker *Checker,
) *Service {
	return &Service{
		interactions:  interactions,
		checks:        checks,
		medications:   medications,
		prescriptions: prescriptions,
		checker:       checker,
	}
}

// =========== Catalog CRUD ===========

func (s *Service) validateInteraction(k *KnownInteraction) error {
	if k.DrugAID == uuid.Nil {
		return newValidationError("drugAId", "is required")
	}
	if k.DrugBID == uuid.Nil {
		return newValidationError("drugBId", "is required")
	}
	if k.DrugAID == k.DrugBID {
		return newValidationError("drugBId", "must differ from drugAId")
	}
	if !k.Severity.Valid() {
		return newValidationError("severity", fmt.Sprintf("unknown value %q", k.Severity))
	}
	if !k.Type.Valid() {
		return newValidationError("interactionType", fmt.Sprintf("unknown value %q", k.Type))
	}
	if k.Description == "" {
		return newValidationError("description", "is required")
	}
	return nil
}

// CreateInteraction adds a catalog record, rejecting duplicates for the
// unordered pair in either order.
func (s *Service) CreateInteraction(ctx context.Context, k *KnownInteraction) error {
	if err := s.validateInteraction(k); err != nil {
		return err
	}

	existing, err := s.interactions.FindByPair(ctx, k.DrugAID, k.DrugBID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("pair %s/%s: %w", k.DrugAID, k.DrugBID, ErrDuplicateInteraction)
	}

	if k.Source == "" {
		k.Source = "manual"
	}
	k.LastUpdated = time.Now().UTC()
	return s.interactions.Create(ctx, k)
}

func (s *Service) GetInteraction(ctx context.Context, id uuid.UUID) (*KnownInteraction, error) {
	return s.interactions.GetByID(ctx, id)
}

func (s *Service) UpdateInteraction(ctx context.Context, k *KnownInteraction) error {
	if err := s.validateInteraction(k); err != nil {
		return err
	}
	k.LastUpdated = time.Now().UTC()
	return s.interactions.Update(ctx, k)
}

func (s *Service) DeleteInteraction(ctx context.Context, id uuid.UUID) error {
	return s.interactions.Delete(ctx, id)
}

func (s *Service) ListInteractions(ctx context.Context, filters ListFilters) ([]*KnownInteraction, int, error) {
	if filters.Severity != "" && !filters.Severity.Valid() {
		return nil, 0, newValidationError("severity", fmt.Sprintf("unknown value %q", filters.Severity))
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, 0, newValidationError("type", fmt.Sprintf("unknown value %q", filters.Type))
	}
	return s.interactions.List(ctx, filters)
}

// =========== Checks ===========

// CheckForPrescription checks a prescription's medication against the
// patient's recent regimen and allergy profile, persists the outcome, and
// returns it.
func (s *Service) CheckForPrescription(ctx context.Context, prescriptionID uuid.UUID, checkedBy string) (*CheckResult, error) {
	rx, err := s.prescriptions.GetByID(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return nil, fmt.Errorf("prescription %s: %w", prescriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("load prescription %s: %w", prescriptionID, err)
	}

	history, err := s.prescriptions.ListRecentByPatient(ctx, rx.PatientID, rx.ID, maxHistoryPrescriptions)
	if err != nil {
		return nil, fmt.Errorf("load prescription history: %w", err)
	}

	medIDs := []uuid.UUID{rx.MedicationID}
	seen := map[uuid.UUID]bool{rx.MedicationID: true}
	for _, h := range history {
		if !seen[h.MedicationID] {
			seen[h.MedicationID] = true
			medIDs = append(medIDs, h.MedicationID)
		}
	}

	meds, err := s.medications.GetByIDs(ctx, medIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve medications: %w", err)
	}

	var subject *catalog.Medication
	active := meds[:0]
	for _, m := range meds {
		if m.ID == rx.MedicationID {
			subject = m
		}
		if m.IsActive || m.ID == rx.MedicationID {
			active = append(active, m)
		}
	}
	if subject == nil {
		return nil, fmt.Errorf("medication %s for prescription %s: %w", rx.MedicationID, rx.ID, ErrNotFound)
	}

	findings, err := s.checker.CheckForPatient(ctx, active, rx.PatientID)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(findings, medIDs, checkedBy)
	result.PrescriptionID = &rx.ID
	patientID := rx.PatientID
	result.PatientID = &patientID

	if err := s.checks.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("persist check result: %w", err)
	}
	return result, nil
}

// CheckForMedications checks an explicit medication ID list. Every ID must
// resolve to an active medication; missing IDs are named in the error.
func (s *Service) CheckForMedications(ctx context.Context, medicationIDs []uuid.UUID, checkedBy string) (*CheckResult, error) {
	meds, err := s.resolveActive(ctx, medicationIDs)
	if err != nil {
		return nil, err
	}

	findings, err := s.checker.Check(ctx, meds)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(findings, medicationIDs, checkedBy)
	if err := s.checks.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("persist check result: %w", err)
	}
	return result, nil
}

// CheckForPatient evaluates a medication list together with the patient's
// allergy profile. Nothing is persisted; callers get the raw findings.
func (s *Service) CheckForPatient(ctx context.Context, medicationIDs []uuid.UUID, patientID uuid.UUID) ([]Candidate, error) {
	meds, err := s.resolveActive(ctx, medicationIDs)
	if err != nil {
		return nil, err
	}
	return s.checker.CheckForPatient(ctx, meds, patientID)
}

func (s *Service) resolveActive(ctx context.Context, medicationIDs []uuid.UUID) ([]*catalog.Medication, error) {
	if len(medicationIDs) == 0 {
		return nil, newValidationError("medicationIds", "at least one medication is required")
	}

	meds, err := s.medications.GetByIDs(ctx, medicationIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve medications: %w", err)
	}

	found := make(map[uuid.UUID]bool, len(meds))
	for _, m := range meds {
		if m.IsActive {
			found[m.ID] = true
		}
	}

	var missing []string
	for _, id := range medicationIDs {
		if !found[id] {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("medications %s: %w", strings.Join(missing, ", "), ErrNotFound)
	}
	return meds, nil
}

// buildResult rolls findings up into a persisted check record. Status is a
// strict worst-case classifier: one severe finding outweighs any number of
// mild ones.
func (s *Service) buildResult(findings []Candidate, medicationIDs []uuid.UUID, checkedBy string) *CheckResult {
	summary := Summarize(findings)

	status := StatusPassed
	switch {
	case summary.BySeverity[SeverityContraindicated] > 0 || summary.BySeverity[SeveritySevere] > 0:
		status = StatusCritical
	case summary.BySeverity[SeverityModerate] > 0:
		status = StatusWarnings
	}

	return &CheckResult{
		MedicationIDs:  medicationIDs,
		Interactions:   findings,
		Status:         status,
		Warnings:       summary.Warnings,
		CriticalAlerts: summary.CriticalAlerts,
		CheckedAt:      time.Now().UTC(),
		CheckedBy:      checkedBy,
	}
}

// =========== Read models ===========

// ListPatientChecks returns a patient's persisted checks, newest first.
func (s *Service) ListPatientChecks(ctx context.Context, patientID uuid.UUID, status CheckStatus, limit, offset int) ([]*CheckResult, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, newValidationError("status", fmt.Sprintf("unknown value %q", status))
	}
	return s.checks.ListByPatient(ctx, patientID, status, limit, offset)
}

// Statistics aggregates the catalog and a rolling 30-day window of check
// outcomes. "Now" is captured once so the window cannot drift
// mid-computation.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	now := time.Now().UTC()

	total, err := s.interactions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	bySeverity, err := s.interactions.CountBySeverity(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	byType, err := s.interactions.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	checks, err := s.checks.CountByStatusSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("count recent checks: %w", err)
	}

	return &Statistics{
		TotalInteractions: total,
		BySeverity:        bySeverity,
		ByType:            byType,
		ChecksLast30Days:  checks,
		GeneratedAt:       now,
	}, nil
}
