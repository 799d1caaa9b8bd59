package drugdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsafe/medsafe/internal/domain/catalog"
	"github.com/medsafe/medsafe/internal/domain/interaction"
	"github.com/medsafe/medsafe/internal/platform/db"
)

// MedicationResolver matches external drug names against the catalog.
type MedicationResolver interface {
	SearchByName(ctx context.Context, fragment string) ([]*catalog.Medication, error)
}

// InteractionCatalog is the slice of the interaction store the sync
// pipeline writes through.
type InteractionCatalog interface {
	FindByPair(ctx context.Context, drugAID, drugBID uuid.UUID) (*interaction.KnownInteraction, error)
	Create(ctx context.Context, k *interaction.KnownInteraction) error
	Update(ctx context.Context, k *interaction.KnownInteraction) error
}

// Service manages external sources and runs reconciliation.
type Service struct {
	sources      SourceRepository
	medications  MedicationResolver
	interactions InteractionCatalog
	fetcher      Fetcher
	txr          db.TxRunner
	logger       zerolog.Logger

	mu      sync.Mutex
	syncing map[uuid.UUID]bool
}

// NewService creates the drug database service.
func NewService(
	sources SourceRepository,
	medications MedicationResolver,
	interactions InteractionCatalog,
	fetcher Fetcher,
	txr db.TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sources:      sources,
		medications:  medications,
		interactions: interactions,
		fetcher:      fetcher,
		txr:          txr,
		logger:       logger,
		syncing:      make(map[uuid.UUID]bool),
	}
}

// =========== Source CRUD ===========

func (s *Service) validateSource(src *Source) error {
	if src.Name == "" {
		return newValidationError("name", "is required")
	}
	if src.Provider == "" {
		return newValidationError("provider", "is required")
	}
	if src.BaseURL == "" {
		return newValidationError("baseUrl", "is required")
	}
	return nil
}

func (s *Service) CreateSource(ctx context.Context, src *Source) error {
	if err := s.validateSource(src); err != nil {
		return err
	}
	if src.Configuration == nil {
		src.Configuration = map[string]string{}
	}
	src.SyncStatus = SyncIdle
	return s.sources.Create(ctx, src)
}

func (s *Service) GetSource(ctx context.Context, id uuid.UUID) (*Source, error) {
	return s.sources.GetByID(ctx, id)
}

func (s *Service) UpdateSource(ctx context.Context, src *Source) error {
	if err := s.validateSource(src); err != nil {
		return err
	}
	return s.sources.Update(ctx, src)
}

func (s *Service) DeleteSource(ctx context.Context, id uuid.UUID) error {
	return s.sources.Delete(ctx, id)
}

func (s *Service) ListSources(ctx context.Context, limit, offset int) ([]*Source, int, error) {
	return s.sources.List(ctx, limit, offset)
}

// GetSyncStatus returns the sync lifecycle fields for a source.
func (s *Service) GetSyncStatus(ctx context.Context, id uuid.UUID) (*SyncState, error) {
	src, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SyncState{SourceID: src.ID, SyncStatus: src.SyncStatus, LastSyncAt: src.LastSyncAt}, nil
}

// =========== Reconciliation ===========

// SyncFromSource fetches the source's interaction tuples and merges them
// into the catalog. Tuples whose drug names cannot be resolved uniquely,
// or that carry malformed fields, are counted as skipped and never abort
// the batch. A fetch failure marks the source FAILED, stamps lastSyncAt,
// and propagates. The source is never left SYNCING.
func (s *Service) SyncFromSource(ctx context.Context, sourceID uuid.UUID) (*SyncResult, error) {
	src, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.IsActive {
		return nil, newValidationError("isActive", "source is disabled")
	}

	if !s.beginSync(sourceID) {
		return nil, fmt.Errorf("source %s: %w", src.Name, ErrSyncInProgress)
	}
	defer s.endSync(sourceID)

	if err := s.sources.UpdateSyncState(ctx, sourceID, SyncSyncing, nil); err != nil {
		return nil, fmt.Errorf("mark source syncing: %w", err)
	}

	result := &SyncResult{SourceID: sourceID, StartedAt: time.Now().UTC()}

	tuples, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		now := time.Now().UTC()
		if stateErr := s.sources.UpdateSyncState(ctx, sourceID, SyncFailed, &now); stateErr != nil {
			s.logger.Error().Err(stateErr).Str("source", src.Name).Msg("failed to record sync failure")
		}
		return nil, fmt.Errorf("%w: source %s: %v", ErrSyncFailed, src.Name, err)
	}

	for _, tuple := range tuples {
		result.Processed++
		if err := s.reconcileTuple(ctx, src, tuple, result); err != nil {
			result.Skipped++
			s.logger.Warn().Err(err).
				Str("source", src.Name).
				Str("drug_a", tuple.DrugAName).
				Str("drug_b", tuple.DrugBName).
				Msg("tuple skipped")
		}
	}

	now := time.Now().UTC()
	if err := s.sources.UpdateSyncState(ctx, sourceID, SyncSuccess, &now); err != nil {
		return nil, fmt.Errorf("mark source synced: %w", err)
	}
	result.FinishedAt = now

	s.logger.Info().
		Str("source", src.Name).
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("sync completed")
	return result, nil
}

func (s *Service) beginSync(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing[id] {
		return false
	}
	s.syncing[id] = true
	return true
}

func (s *Service) endSync(id uuid.UUID) {
	s.mu.Lock()
	delete(s.syncing, id)
	s.mu.Unlock()
}

func (s *Service) reconcileTuple(ctx context.Context, src *Source, tuple RawInteraction, result *SyncResult) error {
	drugA, err := s.resolveDrug(ctx, tuple.DrugAName)
	if err != nil {
		return err
	}
	drugB, err := s.resolveDrug(ctx, tuple.DrugBName)
	if err != nil {
		return err
	}
	if drugA.ID == drugB.ID {
		return fmt.Errorf("both names resolve to %s", drugA.Name)
	}

	severity, err := normalizeSeverity(tuple.Severity)
	if err != nil {
		return err
	}
	itype, err := normalizeType(tuple.Type)
	if err != nil {
		return err
	}

	// Create-or-update is atomic per unordered pair: the lookup and write
	// share one transaction, and the storage layer additionally enforces a
	// unique index over the sorted pair.
	return s.txr.WithTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		existing, err := s.interactions.FindByPair(ctx, drugA.ID, drugB.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Type = itype
			existing.Severity = severity
			existing.Description = tuple.Description
			existing.ClinicalEffects = tuple.ClinicalEffects
			existing.ManagementAdvice = tuple.Management
			existing.Source = src.Name
			existing.LastUpdated = now
			if err := s.interactions.Update(ctx, existing); err != nil {
				return err
			}
			result.Updated++
			return nil
		}

		k := &interaction.KnownInteraction{
			DrugAID:          drugA.ID,
			DrugBID:          drugB.ID,
			Type:             itype,
			Severity:         severity,
			Description:      tuple.Description,
			ClinicalEffects:  tuple.ClinicalEffects,
			ManagementAdvice: tuple.Management,
			Source:           src.Name,
			LastUpdated:      now,
		}
		if err := s.interactions.Create(ctx, k); err != nil {
			return err
		}
		result.Created++
		return nil
	})
}

// resolveDrug maps an external drug name to exactly one catalog record by
// case-insensitive substring match on name or generic name. Zero or
// multiple matches are unresolved; a guess could wire the interaction to
// the wrong drug.
func (s *Service) resolveDrug(ctx context.Context, name string) (*catalog.Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty drug name")
	}

	matches, err := s.medications.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no catalog match for %q", name)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous name %q (%d matches)", name, len(matches))
	}
}

func normalizeSeverity(raw string) (interaction.Severity, error) {
	sev := interaction.Severity(strings.ToUpper(strings.TrimSpace(raw)))
	switch sev {
	case "MAJOR", "HIGH":
		return interaction.SeveritySevere, nil
	case "MINOR", "LOW":
		return interaction.SeverityMild, nil
	}
	if !sev.Valid() {
		return "", fmt.Errorf("malformed severity %q", raw)
	}
	return sev, nil
}

func normalizeType(raw string) (interaction.InteractionType, error) {
	t := interaction.InteractionType(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" {
		return interaction.TypeDrugDrug, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("malformed interaction type %q", raw)
	}
	return t, nil
}

// TestConnection probes a source's reachability. It never returns an
// error; any failure, including an unknown source, reports false.
func (s *Service) TestConnection(ctx context.Context, id uuid.UUID) bool {
	src, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return false
	}
	if err := s.fetcher.Ping(ctx, src); err != nil {
		s.logger.Warn().Err(err).Str("source", src.Name).Msg("connection test failed")
		return false
	}
	return true
}
