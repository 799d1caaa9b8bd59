package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Medication is the drug catalog read model. Records are owned by the
// catalog service; this engine only reads them.
type Medication struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	GenericName         *string   `db:"generic_name" json:"genericName,omitempty"`
	IngredientClassTags []string  `db:"ingredient_class_tags" json:"ingredientClassTags,omitempty"`
	IsActive            bool      `db:"is_active" json:"isActive"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// GenericNameValue returns the generic name or empty string.
func (m *Medication) GenericNameValue() string {
	if m.GenericName == nil {
		return ""
	}
	return *m.GenericName
}
