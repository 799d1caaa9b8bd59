package interaction

import "sort"

// Severity classifies the clinical risk of an interaction finding.
type Severity string

const (
	SeverityContraindicated Severity = "CONTRAINDICATED"
	SeveritySevere          Severity = "SEVERE"
	SeverityModerate        Severity = "MODERATE"
	SeverityMild            Severity = "MILD"
	SeverityUnknown         Severity = "UNKNOWN"
)

// Weight returns the sort weight of a severity, highest risk first.
// Used only for ordering, never for arithmetic.
func (s Severity) Weight() int {
	switch s {
	case SeverityContraindicated:
		return 5
	case SeveritySevere:
		return 4
	case SeverityModerate:
		return 3
	case SeverityMild:
		return 2
	case SeverityUnknown:
		return 1
	}
	return 0
}

// Valid reports whether s is a recognized severity level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityContraindicated, SeveritySevere, SeverityModerate, SeverityMild, SeverityUnknown:
		return true
	}
	return false
}

// InteractionType classifies how a finding was derived clinically.
type InteractionType string

const (
	TypeDrugDrug         InteractionType = "DRUG_DRUG"
	TypeDuplicateTherapy InteractionType = "DUPLICATE_THERAPY"
	TypeCYP450           InteractionType = "CYP450"
	TypeAllergy          InteractionType = "ALLERGY"
)

// Valid reports whether t is a recognized interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case TypeDrugDrug, TypeDuplicateTherapy, TypeCYP450, TypeAllergy:
		return true
	}
	return false
}

// CheckStatus is the worst-case classification of a completed check.
type CheckStatus string

const (
	StatusPassed   CheckStatus = "PASSED"
	StatusWarnings CheckStatus = "WARNINGS"
	StatusCritical CheckStatus = "CRITICAL"
)

// Valid reports whether s is a recognized check status.
func (s CheckStatus) Valid() bool {
	switch s {
	case StatusPassed, StatusWarnings, StatusCritical:
		return true
	}
	return false
}

// SortBySeverity orders candidates by severity weight descending. The sort
// is stable so ties keep discovery order and output stays deterministic.
func SortBySeverity(items []Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Severity.Weight() > items[j].Severity.Weight()
	})
}
