package interaction

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/medsafe/medsafe/internal/domain/catalog"
)

// RuleConfig holds the curated keyword sets the heuristic rules match
// against. The sets are data, not code: a deployment can replace them via
// a JSON file without touching the evaluation loop.
type RuleConfig struct {
	Anticoagulants         []string            `json:"anticoagulants"`
	NSAIDs                 []string            `json:"nsaids"`
	DuplicateTherapyGroups map[string][]string `json:"duplicateTherapyGroups"`
	CYP450Inhibitors       []string            `json:"cyp450Inhibitors"`
	CYP450Inducers         []string            `json:"cyp450Inducers"`
	CYP450Substrates       []string            `json:"cyp450Substrates"`
	CrossReactivityClasses map[string][]string `json:"crossReactivityClasses"`
}

// DefaultRuleConfig returns the built-in keyword sets.
func DefaultRuleConfig() *RuleConfig {
	return &RuleConfig{
		Anticoagulants: []string{
			"warfarin", "heparin", "enoxaparin", "apixaban", "rivaroxaban",
			"dabigatran", "edoxaban", "fondaparinux",
		},
		NSAIDs: []string{
			"aspirin", "ibuprofen", "naproxen", "diclofenac", "ketorolac",
			"indomethacin", "celecoxib", "meloxicam", "piroxicam",
		},
		DuplicateTherapyGroups: map[string][]string{
			"statin":          {"atorvastatin", "simvastatin", "rosuvastatin", "pravastatin", "lovastatin"},
			"ace inhibitor":   {"lisinopril", "enalapril", "ramipril", "captopril", "benazepril"},
			"beta blocker":    {"metoprolol", "atenolol", "carvedilol", "propranolol", "bisoprolol"},
			"benzodiazepine":  {"diazepam", "lorazepam", "alprazolam", "clonazepam", "midazolam"},
			"ssri":            {"sertraline", "fluoxetine", "paroxetine", "citalopram", "escitalopram"},
			"proton pump":     {"omeprazole", "pantoprazole", "esomeprazole", "lansoprazole"},
			"opioid":          {"morphine", "oxycodone", "hydrocodone", "fentanyl", "tramadol", "codeine"},
			"loop diuretic":   {"furosemide", "bumetanide", "torsemide"},
			"sulfonylurea":    {"glipizide", "glyburide", "glimepiride"},
			"anticholinergic": {"oxybutynin", "tolterodine", "solifenacin"},
		},
		CYP450Inhibitors: []string{
			"fluconazole", "ketoconazole", "itraconazole", "erythromycin",
			"clarithromycin", "ritonavir", "fluvoxamine", "ciprofloxacin",
			"amiodarone", "diltiazem", "verapamil",
		},
		CYP450Inducers: []string{
			"rifampin", "rifampicin", "carbamazepine", "phenytoin",
			"phenobarbital", "st john's wort",
		},
		CYP450Substrates: []string{
			"warfarin", "simvastatin", "atorvastatin", "midazolam",
			"cyclosporine", "tacrolimus", "theophylline", "clopidogrel",
		},
		CrossReactivityClasses: map[string][]string{
			"penicillin":    {"penicillin", "amoxicillin", "ampicillin", "piperacillin", "nafcillin", "dicloxacillin"},
			"sulfonamide":   {"sulfamethoxazole", "sulfasalazine", "sulfadiazine", "sulfa"},
			"cephalosporin": {"cephalexin", "cefazolin", "ceftriaxone", "cefuroxime", "cefdinir"},
			"opioid":        {"morphine", "codeine", "hydrocodone", "oxycodone"},
		},
	}
}

// LoadRuleConfig reads a JSON rule file and overlays it on the defaults.
// Sets left empty in the file keep their built-in values.
func LoadRuleConfig(path string) (*RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule config %s: %w", path, err)
	}

	var loaded RuleConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rule config %s: %w", path, err)
	}

	cfg := DefaultRuleConfig()
	if len(loaded.Anticoagulants) > 0 {
		cfg.Anticoagulants = loaded.Anticoagulants
	}
	if len(loaded.NSAIDs) > 0 {
		cfg.NSAIDs = loaded.NSAIDs
	}
	if len(loaded.DuplicateTherapyGroups) > 0 {
		cfg.DuplicateTherapyGroups = loaded.DuplicateTherapyGroups
	}
	if len(loaded.CYP450Inhibitors) > 0 {
		cfg.CYP450Inhibitors = loaded.CYP450Inhibitors
	}
	if len(loaded.CYP450Inducers) > 0 {
		cfg.CYP450Inducers = loaded.CYP450Inducers
	}
	if len(loaded.CYP450Substrates) > 0 {
		cfg.CYP450Substrates = loaded.CYP450Substrates
	}
	if len(loaded.CrossReactivityClasses) > 0 {
		cfg.CrossReactivityClasses = loaded.CrossReactivityClasses
	}
	return cfg, nil
}

// RuleSet evaluates the heuristic rules in a fixed priority order:
// anticoagulant+NSAID, then duplicate therapy, then CYP450. The first rule
// that fires wins, so a pair yields at most one heuristic finding.
type RuleSet struct {
	cfg *RuleConfig
}

// NewRuleSet builds a RuleSet. A nil config uses the defaults.
func NewRuleSet(cfg *RuleConfig) *RuleSet {
	if cfg == nil {
		cfg = DefaultRuleConfig()
	}
	return &RuleSet{cfg: cfg}
}

// Evaluate runs the rules against a medication pair and returns the first
// finding, or nil when no rule fires. Rules never error on well-formed
// records; inapplicability is expressed as nil.
func (rs *RuleSet) Evaluate(a, b *catalog.Medication) *Candidate {
	if c := rs.anticoagulantNSAID(a, b); c != nil {
		return c
	}
	if c := rs.duplicateTherapy(a, b); c != nil {
		return c
	}
	return rs.cyp450(a, b)
}

func (rs *RuleSet) anticoagulantNSAID(a, b *catalog.Medication) *Candidate {
	pairMatches := (medMatchesAny(a, rs.cfg.Anticoagulants) && medMatchesAny(b, rs.cfg.NSAIDs)) ||
		(medMatchesAny(b, rs.cfg.Anticoagulants) && medMatchesAny(a, rs.cfg.NSAIDs))
	if !pairMatches {
		return nil
	}
	effects := "Increased risk of gastrointestinal and systemic bleeding"
	advice := "Avoid combination if possible; if required, monitor for bleeding and consider gastroprotection"
	return &Candidate{
		DrugA:            DrugRef{ID: a.ID, Name: a.Name},
		DrugB:            &DrugRef{ID: b.ID, Name: b.Name},
		Type:             TypeDrugDrug,
		Severity:         SeverityModerate,
		Description:      fmt.Sprintf("%s with %s: combining an anticoagulant with an NSAID increases bleeding risk", a.Name, b.Name),
		ClinicalEffects:  &effects,
		ManagementAdvice: &advice,
		Source:           "rule:anticoagulant-nsaid",
	}
}

func (rs *RuleSet) duplicateTherapy(a, b *catalog.Medication) *Candidate {
	// Groups are checked in name order so output is deterministic even if
	// a pair belongs to more than one group.
	groups := make([]string, 0, len(rs.cfg.DuplicateTherapyGroups))
	for group := range rs.cfg.DuplicateTherapyGroups {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		members := rs.cfg.DuplicateTherapyGroups[group]
		if medMatchesAny(a, members) && medMatchesAny(b, members) {
			effects := "Additive pharmacologic effect and increased adverse event risk"
			advice := "Review whether both agents are intended; discontinue or adjust one if therapy is duplicated"
			return &Candidate{
				DrugA:            DrugRef{ID: a.ID, Name: a.Name},
				DrugB:            &DrugRef{ID: b.ID, Name: b.Name},
				Type:             TypeDuplicateTherapy,
				Severity:         SeverityModerate,
				Description:      fmt.Sprintf("%s and %s both belong to the %s class (possible duplicate therapy)", a.Name, b.Name, group),
				ClinicalEffects:  &effects,
				ManagementAdvice: &advice,
				Source:           "rule:duplicate-therapy",
			}
		}
	}
	return nil
}

func (rs *RuleSet) cyp450(a, b *catalog.Medication) *Candidate {
	if c := rs.cyp450Directional(a, b); c != nil {
		return c
	}
	return rs.cyp450Directional(b, a)
}

func (rs *RuleSet) cyp450Directional(perpetrator, victim *catalog.Medication) *Candidate {
	if !medMatchesAny(victim, rs.cfg.CYP450Substrates) {
		return nil
	}

	var severity Severity
	var mechanism string
	switch {
	case medMatchesAny(perpetrator, rs.cfg.CYP450Inhibitors):
		severity = SeverityModerate
		mechanism = "inhibits"
	case medMatchesAny(perpetrator, rs.cfg.CYP450Inducers):
		severity = SeverityMild
		mechanism = "induces"
	default:
		return nil
	}

	effects := "Altered plasma concentration of the CYP450 substrate"
	advice := "Monitor levels or clinical response; adjust substrate dose if needed"
	return &Candidate{
		DrugA:            DrugRef{ID: perpetrator.ID, Name: perpetrator.Name},
		DrugB:            &DrugRef{ID: victim.ID, Name: victim.Name},
		Type:             TypeCYP450,
		Severity:         severity,
		Description:      fmt.Sprintf("%s %s CYP450 metabolism of %s", perpetrator.Name, mechanism, victim.Name),
		ClinicalEffects:  &effects,
		ManagementAdvice: &advice,
		Source:           "rule:cyp450",
	}
}

// AllergyFinding checks one medication against one recorded allergy
// substance. A finding is emitted when the substance and medication name
// contain each other, or when both fall in the same cross-reactivity
// class. Allergy findings are always CONTRAINDICATED with no second drug.
func (rs *RuleSet) AllergyFinding(med *catalog.Medication, allergy string) *Candidate {
	allergy = strings.TrimSpace(allergy)
	if allergy == "" {
		return nil
	}

	matched := substringEither(med.Name, allergy) || substringEither(med.GenericNameValue(), allergy)
	var class string
	if !matched {
		names := make([]string, 0, len(rs.cfg.CrossReactivityClasses))
		for name := range rs.cfg.CrossReactivityClasses {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if members := rs.cfg.CrossReactivityClasses[name]; containsAny(allergy, members) && medMatchesAny(med, members) {
				matched = true
				class = name
				break
			}
		}
	}
	if !matched {
		return nil
	}

	desc := fmt.Sprintf("%s may trigger the patient's recorded %s allergy", med.Name, allergy)
	if class != "" {
		desc = fmt.Sprintf("%s cross-reacts with the patient's recorded %s allergy (%s class)", med.Name, allergy, class)
	}
	effects := "Potential allergic reaction, up to anaphylaxis"
	advice := "Do not administer; select an alternative agent outside the allergy class"
	return &Candidate{
		DrugA:            DrugRef{ID: med.ID, Name: med.Name},
		Type:             TypeAllergy,
		Severity:         SeverityContraindicated,
		Description:      desc,
		ClinicalEffects:  &effects,
		ManagementAdvice: &advice,
		Source:           "rule:allergy",
	}
}

// medMatchesAny reports whether any keyword is a case-insensitive substring
// of the medication's name, generic name, or ingredient class tags.
func medMatchesAny(m *catalog.Medication, keywords []string) bool {
	if containsAny(m.Name, keywords) || containsAny(m.GenericNameValue(), keywords) {
		return true
	}
	for _, tag := range m.IngredientClassTags {
		if containsAny(tag, keywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// substringEither reports whether either string contains the other,
// case-insensitively.
func substringEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
