package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenericNameValue(t *testing.T) {
	m := Medication{Name: "Coumadin"}
	if v := m.GenericNameValue(); v != "" {
		t.Errorf("nil generic name = %q, want empty", v)
	}

	generic := "warfarin sodium"
	m.GenericName = &generic
	if v := m.GenericNameValue(); v != "warfarin sodium" {
		t.Errorf("generic name = %q", v)
	}
}

func TestMedicationJSON(t *testing.T) {
	generic := "warfarin sodium"
	m := Medication{
		ID:                  uuid.New(),
		Name:                "Coumadin",
		GenericName:         &generic,
		IngredientClassTags: []string{"anticoagulant"},
		IsActive:            true,
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"genericName"`, `"ingredientClassTags"`, `"isActive"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in JSON output", field)
		}
	}

	var decoded Medication
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Name != "Coumadin" || len(decoded.IngredientClassTags) != 1 {
		t.Error("round trip lost fields")
	}
}
