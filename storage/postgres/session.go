package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/L-Aguilar/microsaas-sub003/auth"
)

// DB is the tenant-scoped entry point to the database. All tenant-scoped
// queries go through WithSecurityContext; nothing else in this package
// exposes a way to run them, which makes "query without context" a
// compile-time error rather than a runtime leak.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Pool returns the underlying pool for the identity stores, whose reads run
// outside tenant scope by design: they are what establish the scope.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// WithSecurityContext runs fn inside a transaction whose session variables
// carry the resolved identity. The three values are written with
// set_config(..., true), which is transaction-local: they exist strictly
// between BEGIN and COMMIT/ROLLBACK, so a pooled connection can never leak
// one request's scope into the next. Row-level-security policies reference
// these values, so a query that omits a tenant filter is still scoped.
func (db *DB) WithSecurityContext(ctx context.Context, sc auth.SecurityContext, fn func(pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "[DB.WithSecurityContext] begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenantID := ""
	if sc.TenantID != nil {
		tenantID = *sc.TenantID
	}

	_, err = tx.Exec(ctx,
		`SELECT set_config('app.user_id', $1, true),
		        set_config('app.role', $2, true),
		        set_config('app.tenant_id', $3, true)`,
		sc.UserID, string(sc.Role), tenantID)
	if err != nil {
		return errors.Wrap(err, "[DB.WithSecurityContext] set_config")
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "[DB.WithSecurityContext] commit")
	}
	return nil
}
