package interaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medsafe/medsafe/internal/domain/catalog"
)

// AllergySource reads a patient's recorded allergy substances.
type AllergySource interface {
	ListSubstancesByPatient(ctx context.Context, patientID uuid.UUID) ([]string, error)
}

// Checker evaluates a medication set pairwise against the interaction
// catalog and the heuristic rules, plus patient allergies when a patient
// is in scope. Evaluation is read-only; a Checker is safe for concurrent
// use across requests.
type Checker struct {
	interactions KnownInteractionRepository
	allergies    AllergySource
	rules        *RuleSet
}

// NewChecker creates a Checker.
func NewChecker(interactions KnownInteractionRepository, allergies AllergySource, rules *RuleSet) *Checker {
	if rules == nil {
		rules = NewRuleSet(nil)
	}
	return &Checker{interactions: interactions, allergies: allergies, rules: rules}
}

// Check evaluates every unordered medication pair. The catalog is
// authoritative: a catalogued record wins over the heuristics for a pair.
// Pairs where neither fires contribute nothing; silence does not claim
// safety. Lists of 0 or 1 medications return an empty result.
func (c *Checker) Check(ctx context.Context, medications []*catalog.Medication) ([]Candidate, error) {
	findings := []Candidate{}
	for i := 0; i < len(medications); i++ {
		for j := i + 1; j < len(medications); j++ {
			a, b := medications[i], medications[j]

			known, err := c.interactions.FindByPair(ctx, a.ID, b.ID)
			if err != nil {
				return nil, fmt.Errorf("lookup pair %s/%s: %w", a.Name, b.Name, err)
			}
			if known != nil {
				findings = append(findings, candidateFromKnown(known, a, b))
				continue
			}

			if cand := c.rules.Evaluate(a, b); cand != nil {
				findings = append(findings, *cand)
			}
		}
	}

	SortBySeverity(findings)
	return findings, nil
}

// CheckForPatient extends Check with allergy findings for the patient's
// recorded allergy substances.
func (c *Checker) CheckForPatient(ctx context.Context, medications []*catalog.Medication, patientID uuid.UUID) ([]Candidate, error) {
	findings, err := c.Check(ctx, medications)
	if err != nil {
		return nil, err
	}

	substances, err := c.allergies.ListSubstancesByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load allergies for patient %s: %w", patientID, err)
	}

	for _, med := range medications {
		for _, substance := range substances {
			if cand := c.rules.AllergyFinding(med, substance); cand != nil {
				findings = append(findings, *cand)
			}
		}
	}

	SortBySeverity(findings)
	return findings, nil
}

// Summarize aggregates findings into counts by severity and type plus the
// derived alert lists. Totals are order-independent; the alert lists
// follow input order.
func Summarize(findings []Candidate) *Summary {
	s := &Summary{
		Total:          len(findings),
		BySeverity:     make(map[Severity]int),
		ByType:         make(map[InteractionType]int),
		CriticalAlerts: []string{},
		Warnings:       []string{},
	}
	for _, f := range findings {
		s.BySeverity[f.Severity]++
		s.ByType[f.Type]++
		switch f.Severity {
		case SeverityContraindicated, SeveritySevere:
			s.CriticalAlerts = append(s.CriticalAlerts, f.Description)
		case SeverityModerate:
			s.Warnings = append(s.Warnings, f.Description)
		}
	}
	return s
}

func candidateFromKnown(k *KnownInteraction, a, b *catalog.Medication) Candidate {
	drugA := DrugRef{ID: a.ID, Name: a.Name}
	drugB := DrugRef{ID: b.ID, Name: b.Name}
	// Keep the catalog record's own A/B orientation.
	if k.DrugAID == b.ID {
		drugA, drugB = drugB, drugA
	}
	return Candidate{
		DrugA:            drugA,
		DrugB:            &drugB,
		Type:             k.Type,
		Severity:         k.Severity,
		Description:      k.Description,
		ClinicalEffects:  k.ClinicalEffects,
		ManagementAdvice: k.ManagementAdvice,
		Source:           k.Source,
	}
}
