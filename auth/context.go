package auth

import (
	"context"

	"github.com/L-Aguilar/microsaas-sub003/users"
)

// SecurityContext is the resolved identity attached to exactly one in-flight
// request. It is never persisted and it is the only channel through which
// tenant scoping reaches the storage layer.
type SecurityContext struct {
	UserID   string
	Role     users.RoleType
	TenantID *string
}

// IsSuperAdmin reports whether the context holds the platform-wide role.
func (sc SecurityContext) IsSuperAdmin() bool {
	return sc.Role == users.RoleSuperAdmin
}

type contextKey struct{}

// WithSecurityContext attaches the resolved identity to the request context.
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext retrieves the identity attached by the authenticate gate.
// ok is false when no gate ran; callers must fail closed.
func FromContext(ctx context.Context) (SecurityContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(SecurityContext)
	return sc, ok
}
