package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/tenants"
)

var _ tenants.Repo = (*TenantRepo)(nil)

// TenantRepo reads business-account records for identity resolution.
type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Upsert(ctx context.Context, t *tenants.Tenant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO business_accounts (id, name, is_active, deleted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_active = EXCLUDED.is_active,
			deleted_at = EXCLUDED.deleted_at`,
		t.ID, t.Name, t.IsActive, t.DeletedAt)
	if err != nil {
		return errors.Wrap(err, "[TenantRepo.Upsert] exec")
	}
	return nil
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*tenants.Tenant, error) {
	var t tenants.Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_active, deleted_at, created_at FROM business_accounts WHERE id = $1`,
		tenantID).Scan(&t.ID, &t.Name, &t.IsActive, &t.DeletedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[TenantRepo.Get] scan")
	}
	return &t, nil
}

func (r *TenantRepo) SetActive(ctx context.Context, tenantID string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE business_accounts SET is_active = $2 WHERE id = $1`, tenantID, active)
	if err != nil {
		return errors.Wrap(err, "[TenantRepo.SetActive] exec")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TenantRepo) SoftDelete(ctx context.Context, tenantID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE business_accounts SET deleted_at = now() WHERE id = $1`, tenantID)
	if err != nil {
		return errors.Wrap(err, "[TenantRepo.SoftDelete] exec")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
