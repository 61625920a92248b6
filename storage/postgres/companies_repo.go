package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/companies"
	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
)

var _ companies.Repo = (*CompanyRepo)(nil)

// CompanyRepo is the tenant-scoped companies store. Note that List carries
// no tenant filter in SQL: the row-level-security policy keyed on the
// session context installed by DB.WithSecurityContext does the scoping.
type CompanyRepo struct {
	db *DB
}

func NewCompanyRepo(db *DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

func (r *CompanyRepo) Create(ctx context.Context, sc auth.SecurityContext, company *companies.Company) error {
	if sc.TenantID == nil {
		return apperrors.ErrTenantRequired
	}
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	company.TenantID = *sc.TenantID
	company.CreatedBy = sc.UserID

	return r.db.WithSecurityContext(ctx, sc, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO companies (id, business_account_id, name, website, created_by)
			VALUES ($1, $2, $3, $4, $5)`,
			company.ID, company.TenantID, company.Name, company.Website, company.CreatedBy)
		if err != nil {
			return errors.Wrap(err, "[CompanyRepo.Create] exec")
		}
		return nil
	})
}

func (r *CompanyRepo) List(ctx context.Context, sc auth.SecurityContext) ([]*companies.Company, error) {
	var out []*companies.Company
	err := r.db.WithSecurityContext(ctx, sc, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, business_account_id, name, website, created_by, created_at
			FROM companies
			ORDER BY created_at DESC`)
		if err != nil {
			return errors.Wrap(err, "[CompanyRepo.List] query")
		}
		defer rows.Close()

		for rows.Next() {
			var c companies.Company
			if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Website, &c.CreatedBy, &c.CreatedAt); err != nil {
				return errors.Wrap(err, "[CompanyRepo.List] scan")
			}
			out = append(out, &c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
