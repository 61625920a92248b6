package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

var _ users.Store = (*UserStore)(nil)

// UserStore reads principal records for identity resolution. Its queries run
// outside tenant scope: resolution is what establishes the scope.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, role,
	business_account_id, is_deleted, deleted_at, created_at, last_login`

func (s *UserStore) Upsert(ctx context.Context, p *users.Principal) error {
	// The id column is a UUID; an empty string does not cast, so generate
	// here the same way the fake does.
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, business_account_id, is_deleted, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			business_account_id = EXCLUDED.business_account_id,
			is_deleted = EXCLUDED.is_deleted,
			deleted_at = EXCLUDED.deleted_at`,
		p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, string(p.Role), p.TenantID, p.IsDeleted, p.DeletedAt)
	if err != nil {
		return errors.Wrap(err, "[UserStore.Upsert] exec")
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*users.Principal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanPrincipal(row)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*users.Principal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanPrincipal(row)
}

func (s *UserStore) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_deleted = TRUE, deleted_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[UserStore.SoftDelete] exec")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *UserStore) SetLastLogin(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[UserStore.SetLastLogin] exec")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanPrincipal(row pgx.Row) (*users.Principal, error) {
	var p users.Principal
	var role string
	var lastLogin *time.Time
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &role,
		&p.TenantID, &p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan principal")
	}
	p.Role = users.RoleType(role)
	if lastLogin != nil {
		p.LastLogin = *lastLogin
	}
	return &p, nil
}
