package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medsafe/medsafe/internal/domain/catalog"
)

// mockInteractionRepo is a map-backed KnownInteractionRepository.
type mockInteractionRepo struct {
	items map[uuid.UUID]*KnownInteraction
}

func newMockInteractionRepo() *mockInteractionRepo {
	return &mockInteractionRepo{items: make(map[uuid.UUID]*KnownInteraction)}
}

func (r *mockInteractionRepo) Create(ctx context.Context, k *KnownInteraction) error {
	k.ID = uuid.New()
	k.CreatedAt = time.Now().UTC()
	cp := *k
	r.items[k.ID] = &cp
	return nil
}

func (r *mockInteractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*KnownInteraction, error) {
	k, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (r *mockInteractionRepo) FindByPair(ctx context.Context, drugAID, drugBID uuid.UUID) (*KnownInteraction, error) {
	for _, k := range r.items {
		if (k.DrugAID == drugAID && k.DrugBID == drugBID) || (k.DrugAID == drugBID && k.DrugBID == drugAID) {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockInteractionRepo) Update(ctx context.Context, k *KnownInteraction) error {
	if _, ok := r.items[k.ID]; !ok {
		return ErrNotFound
	}
	cp := *k
	r.items[k.ID] = &cp
	return nil
}

func (r *mockInteractionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *mockInteractionRepo) List(ctx context.Context, f ListFilters) ([]*KnownInteraction, int, error) {
	var out []*KnownInteraction
	for _, k := range r.items {
		if f.Severity != "" && k.Severity != f.Severity {
			continue
		}
		if f.Type != "" && k.Type != f.Type {
			continue
		}
		cp := *k
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *mockInteractionRepo) Count(ctx context.Context) (int, error) {
	return len(r.items), nil
}

func (r *mockInteractionRepo) CountBySeverity(ctx context.Context) (map[Severity]int, error) {
	counts := make(map[Severity]int)
	for _, k := range r.items {
		counts[k.Severity]++
	}
	return counts, nil
}

func (r *mockInteractionRepo) CountByType(ctx context.Context) (map[InteractionType]int, error) {
	counts := make(map[InteractionType]int)
	for _, k := range r.items {
		counts[k.Type]++
	}
	return counts, nil
}

// mockAllergySource serves fixed substance lists per patient.
type mockAllergySource struct {
	substances map[uuid.UUID][]string
}

func (a *mockAllergySource) ListSubstancesByPatient(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	return a.substances[patientID], nil
}

func seedKnown(t *testing.T, repo *mockInteractionRepo, a, b *catalog.Medication, sev Severity, desc string) *KnownInteraction {
	t.Helper()
	k := &KnownInteraction{
		DrugAID:     a.ID,
		DrugBID:     b.ID,
		Type:        TypeDrugDrug,
		Severity:    sev,
		Description: desc,
		Source:      "test-catalog",
		LastUpdated: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), k); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	return k
}

func TestCheckEmptyAndSingleMedication(t *testing.T) {
	checker := NewChecker(newMockInteractionRepo(), &mockAllergySource{}, nil)

	for _, meds := range [][]*catalog.Medication{nil, {med("Metformin")}} {
		findings, err := checker.Check(context.Background(), meds)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings for %d medication(s), got %d", len(meds), len(findings))
		}
		if findings == nil {
			t.Error("findings should be an empty slice, not nil")
		}
	}
}

func TestCheckCatalogWinsOverRules(t *testing.T) {
	repo := newMockInteractionRepo()
	warfarin := med("Warfarin")
	aspirin := med("Aspirin")
	// Catalogued as SEVERE; the heuristic alone would say MODERATE.
	seedKnown(t, repo, warfarin, aspirin, SeveritySevere, "catalogued bleeding risk")

	checker := NewChecker(repo, &mockAllergySource{}, nil)
	findings, err := checker.Check(context.Background(), []*catalog.Medication{warfarin, aspirin})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Severity != SeveritySevere {
		t.Errorf("severity = %s, want the catalogued %s", findings[0].Severity, SeveritySevere)
	}
	if findings[0].Source != "test-catalog" {
		t.Errorf("source = %s, want test-catalog", findings[0].Source)
	}
}

func TestCheckKeepsCatalogOrientation(t *testing.T) {
	repo := newMockInteractionRepo()
	warfarin := med("Warfarin")
	aspirin := med("Aspirin")
	seedKnown(t, repo, warfarin, aspirin, SeveritySevere, "bleeding risk")

	checker := NewChecker(repo, &mockAllergySource{}, nil)
	// Pass the pair in the opposite order from the catalog record.
	findings, err := checker.Check(context.Background(), []*catalog.Medication{aspirin, warfarin})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].DrugA.ID != warfarin.ID {
		t.Errorf("drugA = %s, want the catalog record's A side (Warfarin)", findings[0].DrugA.Name)
	}
}

func TestCheckFallsBackToRules(t *testing.T) {
	checker := NewChecker(newMockInteractionRepo(), &mockAllergySource{}, nil)
	findings, err := checker.Check(context.Background(), []*catalog.Medication{med("Warfarin"), med("Ibuprofen")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 heuristic finding, got %d", len(findings))
	}
	if findings[0].Source != "rule:anticoagulant-nsaid" {
		t.Errorf("source = %s, want rule:anticoagulant-nsaid", findings[0].Source)
	}
}

func TestCheckSortsBySeverityDescending(t *testing.T) {
	repo := newMockInteractionRepo()
	a := med("DrugA")
	b := med("DrugB")
	c := med("DrugC")
	seedKnown(t, repo, a, b, SeverityMild, "mild one")
	seedKnown(t, repo, a, c, SeverityContraindicated, "contraindicated one")
	seedKnown(t, repo, b, c, SeverityModerate, "moderate one")

	checker := NewChecker(repo, &mockAllergySource{}, nil)
	findings, err := checker.Check(context.Background(), []*catalog.Medication{a, b, c})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
	for i := 1; i < len(findings); i++ {
		if findings[i-1].Severity.Weight() < findings[i].Severity.Weight() {
			t.Errorf("findings out of order at %d: %s before %s", i, findings[i-1].Severity, findings[i].Severity)
		}
	}
	if findings[0].Severity != SeverityContraindicated {
		t.Errorf("first finding = %s, want %s", findings[0].Severity, SeverityContraindicated)
	}
}

func TestCheckForPatientAppendsAllergyFindings(t *testing.T) {
	patientID := uuid.New()
	allergies := &mockAllergySource{substances: map[uuid.UUID][]string{
		patientID: {"penicillin"},
	}}

	checker := NewChecker(newMockInteractionRepo(), allergies, nil)
	findings, err := checker.CheckForPatient(context.Background(),
		[]*catalog.Medication{med("Amoxicillin"), med("Warfarin"), med("Aspirin")}, patientID)
	if err != nil {
		t.Fatalf("CheckForPatient: %v", err)
	}

	var allergyCount int
	for _, f := range findings {
		if f.Type == TypeAllergy {
			allergyCount++
		}
	}
	if allergyCount != 1 {
		t.Fatalf("expected 1 allergy finding, got %d", allergyCount)
	}
	// CONTRAINDICATED allergy findings sort ahead of the MODERATE
	// anticoagulant+NSAID finding.
	if findings[0].Type != TypeAllergy {
		t.Errorf("first finding type = %s, want %s", findings[0].Type, TypeAllergy)
	}
}

func TestSummarize(t *testing.T) {
	findings := []Candidate{
		{Description: "contra", Severity: SeverityContraindicated, Type: TypeAllergy},
		{Description: "severe", Severity: SeveritySevere, Type: TypeDrugDrug},
		{Description: "warn", Severity: SeverityModerate, Type: TypeDuplicateTherapy},
		{Description: "mild", Severity: SeverityMild, Type: TypeCYP450},
	}

	s := Summarize(findings)
	if s.Total != 4 {
		t.Errorf("total = %d, want 4", s.Total)
	}
	if len(s.CriticalAlerts) != 2 {
		t.Errorf("critical alerts = %v, want [contra severe]", s.CriticalAlerts)
	}
	if len(s.Warnings) != 1 || s.Warnings[0] != "warn" {
		t.Errorf("warnings = %v, want [warn]", s.Warnings)
	}
	if s.BySeverity[SeverityMild] != 1 || s.ByType[TypeCYP450] != 1 {
		t.Error("mild CYP450 finding not counted")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 {
		t.Errorf("total = %d, want 0", s.Total)
	}
	if s.CriticalAlerts == nil || s.Warnings == nil {
		t.Error("alert lists should be empty slices, not nil")
	}
}
