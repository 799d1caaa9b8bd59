package drugdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsafe/medsafe/internal/domain/catalog"
	"github.com/medsafe/medsafe/internal/domain/interaction"
)

// fakeSources is a map-backed SourceRepository.
type fakeSources struct {
	items map[uuid.UUID]*Source
}

func newFakeSources(sources ...*Source) *fakeSources {
	f := &fakeSources{items: make(map[uuid.UUID]*Source)}
	for _, s := range sources {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		f.items[s.ID] = s
	}
	return f
}

func (f *fakeSources) Create(ctx context.Context, s *Source) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	f.items[s.ID] = s
	return nil
}

func (f *fakeSources) GetByID(ctx context.Context, id uuid.UUID) (*Source, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSources) Update(ctx context.Context, s *Source) error {
	if _, ok := f.items[s.ID]; !ok {
		return ErrNotFound
	}
	f.items[s.ID] = s
	return nil
}

func (f *fakeSources) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeSources) List(ctx context.Context, limit, offset int) ([]*Source, int, error) {
	var out []*Source
	for _, s := range f.items {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeSources) UpdateSyncState(ctx context.Context, id uuid.UUID, status SyncStatus, lastSyncAt *time.Time) error {
	s, ok := f.items[id]
	if !ok {
		return ErrNotFound
	}
	s.SyncStatus = status
	if lastSyncAt != nil {
		s.LastSyncAt = lastSyncAt
	}
	return nil
}

// fakeResolver matches names by case-insensitive substring, like the real
// catalog search.
type fakeResolver struct {
	meds []*catalog.Medication
}

func (f *fakeResolver) SearchByName(ctx context.Context, fragment string) ([]*catalog.Medication, error) {
	lower := strings.ToLower(fragment)
	var out []*catalog.Medication
	for _, m := range f.meds {
		if strings.Contains(strings.ToLower(m.Name), lower) {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeInteractions captures catalog writes from the sync pipeline.
type fakeInteractions struct {
	items map[uuid.UUID]*interaction.KnownInteraction
}

func newFakeInteractions() *fakeInteractions {
	return &fakeInteractions{items: make(map[uuid.UUID]*interaction.KnownInteraction)}
}

func (f *fakeInteractions) FindByPair(ctx context.Context, drugAID, drugBID uuid.UUID) (*interaction.KnownInteraction, error) {
	for _, k := range f.items {
		if (k.DrugAID == drugAID && k.DrugBID == drugBID) || (k.DrugAID == drugBID && k.DrugBID == drugAID) {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInteractions) Create(ctx context.Context, k *interaction.KnownInteraction) error {
	k.ID = uuid.New()
	cp := *k
	f.items[k.ID] = &cp
	return nil
}

func (f *fakeInteractions) Update(ctx context.Context, k *interaction.KnownInteraction) error {
	if _, ok := f.items[k.ID]; !ok {
		return interaction.ErrNotFound
	}
	cp := *k
	f.items[k.ID] = &cp
	return nil
}

// fakeTxRunner runs the function without a real transaction.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeFetcher serves canned tuples. When block is set, Fetch signals
// started and waits for release, letting tests overlap two syncs.
type fakeFetcher struct {
	tuples  []RawInteraction
	err     error
	pingErr error

	block   bool
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, source *Source) ([]RawInteraction, error) {
	if f.block {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.tuples, nil
}

func (f *fakeFetcher) Ping(ctx context.Context, source *Source) error {
	return f.pingErr
}

func testMed(name string) *catalog.Medication {
	return &catalog.Medication{ID: uuid.New(), Name: name, IsActive: true}
}

func activeSource() *Source {
	return &Source{
		ID:         uuid.New(),
		Name:       "rxtest",
		Provider:   "generic",
		BaseURL:    "https://rxtest.example.com",
		IsActive:   true,
		SyncStatus: SyncIdle,
	}
}

func newTestService(sources *fakeSources, resolver *fakeResolver, interactions *fakeInteractions, fetcher *fakeFetcher) *Service {
	return NewService(sources, resolver, interactions, fetcher, fakeTxRunner{}, zerolog.Nop())
}

func TestCreateSourceValidation(t *testing.T) {
	svc := newTestService(newFakeSources(), &fakeResolver{}, newFakeInteractions(), &fakeFetcher{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Source)
	}{
		{"missing name", func(s *Source) { s.Name = "" }},
		{"missing provider", func(s *Source) { s.Provider = "" }},
		{"missing baseUrl", func(s *Source) { s.BaseURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := activeSource()
			tc.mutate(s)
			err := svc.CreateSource(ctx, s)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateSourceDefaults(t *testing.T) {
	svc := newTestService(newFakeSources(), &fakeResolver{}, newFakeInteractions(), &fakeFetcher{})

	s := activeSource()
	s.SyncStatus = SyncSuccess // must be reset; new sources start idle
	s.Configuration = nil
	if err := svc.CreateSource(context.Background(), s); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if s.SyncStatus != SyncIdle {
		t.Errorf("syncStatus = %s, want %s", s.SyncStatus, SyncIdle)
	}
	if s.Configuration == nil {
		t.Error("configuration should default to an empty map")
	}
}

func TestSyncFromSourceCreatesInteractions(t *testing.T) {
	warfarin := testMed("Warfarin")
	aspirin := testMed("Aspirin")
	src := activeSource()
	sources := newFakeSources(src)
	interactions := newFakeInteractions()
	fetcher := &fakeFetcher{tuples: []RawInteraction{
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Type: "DRUG_DRUG", Severity: "SEVERE", Description: "bleeding risk"},
	}}

	svc := newTestService(sources, &fakeResolver{meds: []*catalog.Medication{warfarin, aspirin}}, interactions, fetcher)
	result, err := svc.SyncFromSource(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}

	if result.Processed != 1 || result.Created != 1 || result.Updated != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 1 processed and created", result)
	}
	if len(interactions.items) != 1 {
		t.Fatalf("expected 1 stored interaction, got %d", len(interactions.items))
	}
	for _, k := range interactions.items {
		if k.Severity != interaction.SeveritySevere {
			t.Errorf("severity = %s, want SEVERE", k.Severity)
		}
		if k.Source != src.Name {
			t.Errorf("source = %s, want %s", k.Source, src.Name)
		}
	}

	state, err := svc.GetSyncStatus(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if state.SyncStatus != SyncSuccess {
		t.Errorf("syncStatus = %s, want %s", state.SyncStatus, SyncSuccess)
	}
	if state.LastSyncAt == nil {
		t.Error("lastSyncAt should be stamped after a successful sync")
	}
}

func TestSyncFromSourceSecondRunUpdates(t *testing.T) {
	warfarin := testMed("Warfarin")
	aspirin := testMed("Aspirin")
	src := activeSource()
	sources := newFakeSources(src)
	interactions := newFakeInteractions()
	fetcher := &fakeFetcher{tuples: []RawInteraction{
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Severity: "SEVERE", Description: "bleeding risk"},
	}}

	svc := newTestService(sources, &fakeResolver{meds: []*catalog.Medication{warfarin, aspirin}}, interactions, fetcher)
	ctx := context.Background()
	if _, err := svc.SyncFromSource(ctx, src.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	fetcher.tuples[0].Severity = "MODERATE"
	result, err := svc.SyncFromSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Errorf("second run: created=%d updated=%d, want pure update", result.Created, result.Updated)
	}
	if len(interactions.items) != 1 {
		t.Fatalf("expected the same record updated in place, got %d records", len(interactions.items))
	}
	for _, k := range interactions.items {
		if k.Severity != interaction.SeverityModerate {
			t.Errorf("severity = %s, want the refreshed MODERATE", k.Severity)
		}
	}
}

func TestSyncFromSourceSkipsUnresolvableTuples(t *testing.T) {
	warfarin := testMed("Warfarin")
	aspirin := testMed("Aspirin")
	// Two medications both match the fragment "statin".
	atorva := testMed("Atorvastatin")
	simva := testMed("Simvastatin")

	src := activeSource()
	sources := newFakeSources(src)
	interactions := newFakeInteractions()
	fetcher := &fakeFetcher{tuples: []RawInteraction{
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Severity: "SEVERE", Description: "ok"},
		{DrugAName: "statin", DrugBName: "Aspirin", Severity: "SEVERE", Description: "ambiguous A"},
		{DrugAName: "Warfarin", DrugBName: "Nonexistol", Severity: "SEVERE", Description: "unknown B"},
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Severity: "CATASTROPHIC", Description: "bad severity"},
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Type: "TELEPATHY", Severity: "SEVERE", Description: "bad type"},
	}}

	svc := newTestService(sources,
		&fakeResolver{meds: []*catalog.Medication{warfarin, aspirin, atorva, simva}},
		interactions, fetcher)
	result, err := svc.SyncFromSource(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}

	if result.Processed != 5 {
		t.Errorf("processed = %d, want 5", result.Processed)
	}
	// Tuple 1 creates; tuple 4's bad severity is skipped before the upsert,
	// so only the one record exists and was created once.
	if result.Created != 1 {
		t.Errorf("created = %d, want 1", result.Created)
	}
	if result.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", result.Skipped)
	}
	if state, _ := svc.GetSyncStatus(context.Background(), src.ID); state.SyncStatus != SyncSuccess {
		t.Errorf("per-tuple failures must not fail the sync: status = %s", state.SyncStatus)
	}
}

func TestSyncFromSourceSeveritySynonyms(t *testing.T) {
	warfarin := testMed("Warfarin")
	aspirin := testMed("Aspirin")
	src := activeSource()
	interactions := newFakeInteractions()
	fetcher := &fakeFetcher{tuples: []RawInteraction{
		{DrugAName: "Warfarin", DrugBName: "Aspirin", Severity: "major", Description: "synonym severity"},
	}}

	svc := newTestService(newFakeSources(src), &fakeResolver{meds: []*catalog.Medication{warfarin, aspirin}}, interactions, fetcher)
	if _, err := svc.SyncFromSource(context.Background(), src.ID); err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}
	for _, k := range interactions.items {
		if k.Severity != interaction.SeveritySevere {
			t.Errorf("severity = %s, want MAJOR mapped to SEVERE", k.Severity)
		}
		if k.Type != interaction.TypeDrugDrug {
			t.Errorf("type = %s, want empty type defaulted to DRUG_DRUG", k.Type)
		}
	}
}

func TestSyncFromSourceFetchFailure(t *testing.T) {
	src := activeSource()
	sources := newFakeSources(src)
	fetcher := &fakeFetcher{err: fmt.Errorf("connection refused")}

	svc := newTestService(sources, &fakeResolver{}, newFakeInteractions(), fetcher)
	_, err := svc.SyncFromSource(context.Background(), src.ID)
	if !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("got %v, want ErrSyncFailed", err)
	}

	state, err := svc.GetSyncStatus(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if state.SyncStatus != SyncFailed {
		t.Errorf("syncStatus = %s, want %s", state.SyncStatus, SyncFailed)
	}
	if state.LastSyncAt == nil {
		t.Error("failed sync should still stamp lastSyncAt")
	}
}

func TestSyncFromSourceRejectsInactive(t *testing.T) {
	src := activeSource()
	src.IsActive = false
	svc := newTestService(newFakeSources(src), &fakeResolver{}, newFakeInteractions(), &fakeFetcher{})

	_, err := svc.SyncFromSource(context.Background(), src.ID)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for disabled source, got %v", err)
	}
}

func TestSyncFromSourceUnknownSource(t *testing.T) {
	svc := newTestService(newFakeSources(), &fakeResolver{}, newFakeInteractions(), &fakeFetcher{})
	if _, err := svc.SyncFromSource(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSyncFromSourceRejectsConcurrentRun(t *testing.T) {
	src := activeSource()
	sources := newFakeSources(src)
	fetcher := &fakeFetcher{
		block:   true,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	svc := newTestService(sources, &fakeResolver{}, newFakeInteractions(), fetcher)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.SyncFromSource(ctx, src.ID)
		done <- err
	}()

	// Wait until the first sync is inside Fetch, then start a second one.
	<-fetcher.started
	if _, err := svc.SyncFromSource(ctx, src.ID); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("got %v, want ErrSyncInProgress", err)
	}

	close(fetcher.release)
	if err := <-done; err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Once the first run finishes the source can sync again.
	fetcher.block = false
	if _, err := svc.SyncFromSource(ctx, src.ID); err != nil {
		t.Errorf("sync after release: %v", err)
	}
}

func TestTestConnection(t *testing.T) {
	src := activeSource()
	fetcher := &fakeFetcher{}
	svc := newTestService(newFakeSources(src), &fakeResolver{}, newFakeInteractions(), fetcher)
	ctx := context.Background()

	if !svc.TestConnection(ctx, src.ID) {
		t.Error("reachable source should report true")
	}

	fetcher.pingErr = fmt.Errorf("timeout")
	if svc.TestConnection(ctx, src.ID) {
		t.Error("unreachable source should report false")
	}

	if svc.TestConnection(ctx, uuid.New()) {
		t.Error("unknown source should report false, not error")
	}
}
