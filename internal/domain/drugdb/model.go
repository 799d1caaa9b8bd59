package drugdb

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks where a source is in its reconciliation lifecycle.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "IDLE"
	SyncSyncing SyncStatus = "SYNCING"
	SyncSuccess SyncStatus = "SUCCESS"
	SyncFailed  SyncStatus = "FAILED"
)

// Valid reports whether s is a recognized sync status.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncIdle, SyncSyncing, SyncSuccess, SyncFailed:
		return true
	}
	return false
}

// Source is a configured external drug interaction database.
type Source struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	Name          string            `db:"name" json:"name"`
	Provider      string            `db:"provider" json:"provider"`
	BaseURL       string            `db:"base_url" json:"baseUrl"`
	Credential    *string           `db:"credential" json:"credential,omitempty"`
	Configuration map[string]string `db:"configuration" json:"configuration"`
	IsActive      bool              `db:"is_active" json:"isActive"`
	LastSyncAt    *time.Time        `db:"last_sync_at" json:"lastSyncAt,omitempty"`
	SyncStatus    SyncStatus        `db:"sync_status" json:"syncStatus"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updatedAt"`
}

// RawInteraction is the tuple shape fetched from an external source before
// drug names are resolved against the catalog.
type RawInteraction struct {
	DrugAName       string  `json:"drugAName"`
	DrugBName       string  `json:"drugBName"`
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	Description     string  `json:"description"`
	ClinicalEffects *string `json:"clinicalEffects,omitempty"`
	Management      *string `json:"management,omitempty"`
}

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	SourceID   uuid.UUID `json:"sourceId"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// SyncState is the read model for a source's sync status probe.
type SyncState struct {
	SourceID   uuid.UUID  `json:"sourceId"`
	SyncStatus SyncStatus `json:"syncStatus"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}
