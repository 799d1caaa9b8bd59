package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medsafe/medsafe/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Known Interaction Repository ===========

type knownInteractionRepoPG struct{ pool *pgxpool.Pool }

func NewKnownInteractionRepoPG(pool *pgxpool.Pool) KnownInteractionRepository {
	return &knownInteractionRepoPG{pool: pool}
}

func (r *knownInteractionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const kiCols = `id, drug_a_id, drug_b_id, interaction_type, severity, description,
	clinical_effects, management_advice, source, last_updated, created_at`

func (r *knownInteractionRepoPG) scanKI(row pgx.Row) (*KnownInteraction, error) {
	var k KnownInteraction
	err := row.Scan(&k.ID, &k.DrugAID, &k.DrugBID, &k.Type, &k.Severity, &k.Description,
		&k.ClinicalEffects, &k.ManagementAdvice, &k.Source, &k.LastUpdated, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &k, err
}

func (r *knownInteractionRepoPG) Create(ctx context.Context, k *KnownInteraction) error {
	k.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO known_interactions (id, drug_a_id, drug_b_id, interaction_type, severity,
			description, clinical_effects, management_advice, source, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		k.ID, k.DrugAID, k.DrugBID, k.Type, k.Severity,
		k.Description, k.ClinicalEffects, k.ManagementAdvice, k.Source, k.LastUpdated)
	return err
}

func (r *knownInteractionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*KnownInteraction, error) {
	return r.scanKI(r.conn(ctx).QueryRow(ctx, `SELECT `+kiCols+` FROM known_interactions WHERE id = $1`, id))
}

func (r *knownInteractionRepoPG) FindByPair(ctx context.Context, drugAID, drugBID uuid.UUID) (*KnownInteraction, error) {
	k, err := r.scanKI(r.conn(ctx).QueryRow(ctx, `
		SELECT `+kiCols+` FROM known_interactions
		WHERE (drug_a_id = $1 AND drug_b_id = $2) OR (drug_a_id = $2 AND drug_b_id = $1)
		LIMIT 1`, drugAID, drugBID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return k, err
}

func (r *knownInteractionRepoPG) Update(ctx context.Context, k *KnownInteraction) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE known_interactions SET interaction_type=$2, severity=$3, description=$4,
			clinical_effects=$5, management_advice=$6, source=$7, last_updated=$8
		WHERE id = $1`,
		k.ID, k.Type, k.Severity, k.Description,
		k.ClinicalEffects, k.ManagementAdvice, k.Source, k.LastUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *knownInteractionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM known_interactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *knownInteractionRepoPG) List(ctx context.Context, f ListFilters) ([]*KnownInteraction, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.DrugAID != nil {
		args = append(args, *f.DrugAID)
		where += fmt.Sprintf(" AND (drug_a_id = $%d OR drug_b_id = $%d)", len(args), len(args))
	}
	if f.DrugBID != nil {
		args = append(args, *f.DrugBID)
		where += fmt.Sprintf(" AND (drug_a_id = $%d OR drug_b_id = $%d)", len(args), len(args))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		where += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where += fmt.Sprintf(" AND interaction_type = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM known_interactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+kiCols+` FROM known_interactions`+where+
			fmt.Sprintf(" ORDER BY last_updated DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*KnownInteraction
	for rows.Next() {
		k, err := r.scanKI(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, k)
	}
	return items, total, rows.Err()
}

func (r *knownInteractionRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM known_interactions`).Scan(&total)
	return total, err
}

func (r *knownInteractionRepoPG) CountBySeverity(ctx context.Context) (map[Severity]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT severity, COUNT(*) FROM known_interactions GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[Severity]int)
	for rows.Next() {
		var sev Severity
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		counts[sev] = n
	}
	return counts, rows.Err()
}

func (r *knownInteractionRepoPG) CountByType(ctx context.Context) (map[InteractionType]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT interaction_type, COUNT(*) FROM known_interactions GROUP BY interaction_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[InteractionType]int)
	for rows.Next() {
		var t InteractionType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// =========== Check Result Repository ===========

type checkResultRepoPG struct{ pool *pgxpool.Pool }

func NewCheckResultRepoPG(pool *pgxpool.Pool) CheckResultRepository {
	return &checkResultRepoPG{pool: pool}
}

func (r *checkResultRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const crCols = `id, prescription_id, patient_id, medication_ids, interactions, status,
	warnings, critical_alerts, checked_at, checked_by`

func (r *checkResultRepoPG) scanCR(row pgx.Row) (*CheckResult, error) {
	var cr CheckResult
	var interactions []byte
	err := row.Scan(&cr.ID, &cr.PrescriptionID, &cr.PatientID, &cr.MedicationIDs, &interactions, &cr.Status,
		&cr.Warnings, &cr.CriticalAlerts, &cr.CheckedAt, &cr.CheckedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(interactions, &cr.Interactions); err != nil {
		return nil, fmt.Errorf("decode interactions for check %s: %w", cr.ID, err)
	}
	return &cr, nil
}

func (r *checkResultRepoPG) Create(ctx context.Context, cr *CheckResult) error {
	cr.ID = uuid.New()
	interactions, err := json.Marshal(cr.Interactions)
	if err != nil {
		return fmt.Errorf("encode interactions: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO interaction_checks (id, prescription_id, patient_id, medication_ids,
			interactions, status, warnings, critical_alerts, checked_at, checked_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		cr.ID, cr.PrescriptionID, cr.PatientID, cr.MedicationIDs,
		interactions, cr.Status, cr.Warnings, cr.CriticalAlerts, cr.CheckedAt, cr.CheckedBy)
	return err
}

func (r *checkResultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CheckResult, error) {
	return r.scanCR(r.conn(ctx).QueryRow(ctx, `SELECT `+crCols+` FROM interaction_checks WHERE id = $1`, id))
}

func (r *checkResultRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status CheckStatus, limit, offset int) ([]*CheckResult, int, error) {
	where := ` WHERE patient_id = $1`
	args := []interface{}{patientID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM interaction_checks`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+crCols+` FROM interaction_checks`+where+
			fmt.Sprintf(" ORDER BY checked_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CheckResult
	for rows.Next() {
		cr, err := r.scanCR(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cr)
	}
	return items, total, rows.Err()
}

func (r *checkResultRepoPG) CountByStatusSince(ctx context.Context, since time.Time) (map[CheckStatus]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*) FROM interaction_checks
		WHERE checked_at >= $1 GROUP BY status`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[CheckStatus]int)
	for rows.Next() {
		var st CheckStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
