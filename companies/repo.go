package companies

import (
	"context"

	"github.com/L-Aguilar/microsaas-sub003/auth"
)

// Repo is a tenant-scoped store. Every method takes the caller's
// SecurityContext as an explicit parameter: there is no way to query
// companies without stating who is asking.
type Repo interface {
	Create(ctx context.Context, sc auth.SecurityContext, company *Company) error
	List(ctx context.Context, sc auth.SecurityContext) ([]*Company, error)
}
