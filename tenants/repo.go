package tenants

import "context"

// Repo provides access to business accounts. Get returns
// apperrors.ErrNotFound when the tenant does not exist.
type Repo interface {
	Upsert(ctx context.Context, tenant *Tenant) error
	Get(ctx context.Context, tenantID string) (*Tenant, error)
	SetActive(ctx context.Context, tenantID string, active bool) error
	SoftDelete(ctx context.Context, tenantID string) error
}
