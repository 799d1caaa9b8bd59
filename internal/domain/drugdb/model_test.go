package drugdb

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSyncStatusValid(t *testing.T) {
	for _, s := range []SyncStatus{SyncIdle, SyncSyncing, SyncSuccess, SyncFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if SyncStatus("RUNNING").Valid() {
		t.Error("RUNNING should not be valid")
	}
	if SyncStatus("").Valid() {
		t.Error("empty status should not be valid")
	}
}

func TestSourceJSON(t *testing.T) {
	cred := "secret-token"
	now := time.Now().UTC().Truncate(time.Second)
	s := Source{
		ID:            uuid.New(),
		Name:          "rxnav",
		Provider:      "nih",
		BaseURL:       "https://rxnav.example.com",
		Credential:    &cred,
		Configuration: map[string]string{"interactions_path": "/v1/interactions"},
		IsActive:      true,
		LastSyncAt:    &now,
		SyncStatus:    SyncSuccess,
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"baseUrl"`, `"isActive"`, `"lastSyncAt"`, `"syncStatus"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in JSON output", field)
		}
	}

	var decoded Source
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.SyncStatus != SyncSuccess {
		t.Errorf("syncStatus = %s, want %s", decoded.SyncStatus, SyncSuccess)
	}
	if decoded.Configuration["interactions_path"] != "/v1/interactions" {
		t.Error("round trip lost configuration")
	}
}

func TestSourceJSONOmitsEmptyOptionals(t *testing.T) {
	s := Source{
		ID:         uuid.New(),
		Name:       "bare",
		Provider:   "generic",
		BaseURL:    "https://bare.example.com",
		SyncStatus: SyncIdle,
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"credential"`) {
		t.Error("nil credential should be omitted")
	}
	if strings.Contains(string(data), `"lastSyncAt"`) {
		t.Error("nil lastSyncAt should be omitted")
	}
}
