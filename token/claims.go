package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/L-Aguilar/microsaas-sub003/users"
)

// Claims is the verified payload of a bearer token. The token is
// self-contained: validity needs no server-side lookup, only revocation does.
type Claims struct {
	Role     users.RoleType `json:"role"`
	TenantID *string        `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// TokenID returns the jti used for revocation.
func (c *Claims) TokenID() string {
	return c.ID
}
