package drugdb

import (
	"context"
	"errors"
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

type sourceRepoPG struct{ pool *pgxpool.Pool }

func NewSourceRepoPG(pool *pgxpool.Pool) SourceRepository { return &sourceRepoPG{pool: pool} }

func (r *sourceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const srcCols = `id, name, provider, base_url, credential, configuration, is_active,
	last_sync_at, sync_status, created_at, updated_at`

func (r *sourceRepoPG) scanSource(row pgx.Row) (*Source, error) {
	var s Source
	err := row.Scan(&s.ID, &s.Name, &s.Provider, &s.BaseURL, &s.Credential, &s.Configuration, &s.IsActive,
		&s.LastSyncAt, &s.SyncStatus, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *sourceRepoPG) Create(ctx context.Context, s *Source) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug_database_sources (id, name, provider, base_url, credential,
			configuration, is_active, sync_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Name, s.Provider, s.BaseURL, s.Credential,
		s.Configuration, s.IsActive, s.SyncStatus)
	return err
}

func (r *sourceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Source, error) {
	return r.scanSource(r.conn(ctx).QueryRow(ctx, `SELECT `+srcCols+` FROM drug_database_sources WHERE id = $1`, id))
}

func (r *sourceRepoPG) Update(ctx context.Context, s *Source) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug_database_sources SET name=$2, provider=$3, base_url=$4, credential=$5,
			configuration=$6, is_active=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Provider, s.BaseURL, s.Credential, s.Configuration, s.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sourceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM drug_database_sources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sourceRepoPG) List(ctx context.Context, limit, offset int) ([]*Source, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug_database_sources`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+srcCols+` FROM drug_database_sources ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Source
	for rows.Next() {
		s, err := r.scanSource(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *sourceRepoPG) UpdateSyncState(ctx context.Context, id uuid.UUID, status SyncStatus, lastSyncAt *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug_database_sources
		SET sync_status = $2, last_sync_at = COALESCE($3, last_sync_at), updated_at = NOW()
		WHERE id = $1`,
		id, status, lastSyncAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
