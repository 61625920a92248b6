package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/internal/observability"
	"github.com/L-Aguilar/microsaas-sub003/tenants"
	"github.com/L-Aguilar/microsaas-sub003/token"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

// Stores holds the identity stores the gatekeeper resolves against.
type Stores struct {
	Users   users.Store  // Principal records
	Tenants tenants.Repo // Business accounts
}

// Gatekeeper turns an inbound bearer token into a verified SecurityContext.
// It composes token verification, the revocation check and the ordered
// identity-resolution pipeline into a single atomic admission decision.
type Gatekeeper struct {
	stores   Stores
	codec    *token.Codec
	registry token.RevocationRegistry
	audit    *AuditTrail
	logger   zerolog.Logger
}

type GatekeeperOption func(*Gatekeeper)

// WithAuditTrail sets the security-audit destination.
func WithAuditTrail(audit *AuditTrail) GatekeeperOption {
	return func(g *Gatekeeper) {
		g.audit = audit
	}
}

// WithLogger sets the service logger used for infrastructure failures.
func WithLogger(logger zerolog.Logger) GatekeeperOption {
	return func(g *Gatekeeper) {
		g.logger = logger
	}
}

func NewGatekeeper(stores Stores, codec *token.Codec, registry token.RevocationRegistry, options ...GatekeeperOption) (*Gatekeeper, error) {
	if stores.Users == nil {
		return nil, errors.New("[NewGatekeeper] Users store is required")
	}
	if stores.Tenants == nil {
		return nil, errors.New("[NewGatekeeper] Tenants repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewGatekeeper] codec is required")
	}
	if registry == nil {
		return nil, errors.New("[NewGatekeeper] revocation registry is required")
	}

	g := &Gatekeeper{
		stores:   stores,
		codec:    codec,
		registry: registry,
		audit:    NewAuditTrail(nil),
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Authenticate runs the full admission pipeline: verify signature and
// expiry, consult the revocation registry, resolve the principal and its
// business account. Any identity-consistency failure revokes the presented
// token before surfacing, so the token can never be trusted again even if
// the underlying record is recreated under the same identifier.
func (g *Gatekeeper) Authenticate(ctx context.Context, rawToken string) (*SecurityContext, error) {
	claims, err := g.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	revoked, err := g.registry.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrResolution, "revocation check: %v", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	sc, err := g.resolve(ctx, claims)
	if err != nil {
		if apperrors.IsIdentityConsistency(err) {
			g.revoke(ctx, claims, err.Error())
		}
		return nil, err
	}
	return sc, nil
}

// resolve loads the principal and, when bound, its business account, and
// evaluates the liveness predicates in strict order. Each stage fails with
// its own tagged error so the caller can decide the revoke side effect
// without re-deriving it.
func (g *Gatekeeper) resolve(ctx context.Context, claims *token.Claims) (*SecurityContext, error) {
	principal, err := g.stores.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrapf(apperrors.ErrResolution, "load principal: %v", err)
	}

	if !principal.Active() {
		return nil, apperrors.ErrPrincipalSuspended
	}

	// The platform-super role is tenant-exempt, totally: no business-account
	// state can lock it out.
	if principal.TenantID != nil && !principal.IsSuperAdmin() {
		tenant, err := g.stores.Tenants.Get(ctx, *principal.TenantID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrTenantNotFound
			}
			return nil, apperrors.Wrapf(apperrors.ErrResolution, "load tenant: %v", err)
		}
		if !tenant.IsActive {
			return nil, apperrors.ErrTenantInactive
		}
		if tenant.DeletedAt != nil {
			return nil, apperrors.ErrTenantDeleted
		}
	}

	return &SecurityContext{
		UserID:   principal.ID,
		Role:     principal.Role,
		TenantID: principal.TenantID,
	}, nil
}

// revoke is the unconditional side effect for identity-consistency failures.
// It runs on a context detached from request cancellation: an aborted request
// must not roll back a revocation already decided.
func (g *Gatekeeper) revoke(ctx context.Context, claims *token.Claims, reason string) {
	expiresAt := claims.ExpiresAt.Time
	if err := g.registry.Revoke(context.WithoutCancel(ctx), claims.TokenID(), expiresAt); err != nil {
		// The admission is denied either way; the registry miss only matters
		// until the token's natural expiry.
		g.logger.Error().Err(err).Str("token_id", claims.TokenID()).Msg("revocation write failed")
		return
	}
	observability.RevocationsTotal.WithLabelValues("identity_inconsistency").Inc()
	g.audit.Revoked(claims.TokenID(), reason, expiresAt)
}

// Login checks first-party credentials and mints a bearer token. All
// credential and liveness failures collapse to ErrInvalidCredentials so the
// endpoint cannot be used as an account oracle; infrastructure failures stay
// distinct.
func (g *Gatekeeper) Login(ctx context.Context, email, password string) (string, *SecurityContext, error) {
	principal, err := g.stores.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, apperrors.Wrapf(apperrors.ErrResolution, "load principal: %v", err)
	}

	if !users.CheckPasswordHash(password, principal.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !principal.Active() {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if principal.TenantID != nil && !principal.IsSuperAdmin() {
		tenant, err := g.stores.Tenants.Get(ctx, *principal.TenantID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return "", nil, apperrors.ErrInvalidCredentials
			}
			return "", nil, apperrors.Wrapf(apperrors.ErrResolution, "load tenant: %v", err)
		}
		if !tenant.Live() {
			return "", nil, apperrors.ErrInvalidCredentials
		}
	}

	signed, _, err := g.codec.Mint(principal)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Gatekeeper.Login] Mint")
	}

	if err := g.stores.Users.SetLastLogin(ctx, principal.ID); err != nil {
		g.logger.Warn().Err(err).Str("user_id", principal.ID).Msg("failed to record last login")
	}

	sc := &SecurityContext{
		UserID:   principal.ID,
		Role:     principal.Role,
		TenantID: principal.TenantID,
	}
	g.audit.Admitted(principal.ID, "login", principal.TenantID)
	return signed, sc, nil
}

// Refresh re-runs the full admission pipeline for the presented token, then
// rotates it: the old token is revoked and a fresh one minted for the same
// principal.
func (g *Gatekeeper) Refresh(ctx context.Context, rawToken string) (string, *SecurityContext, error) {
	claims, err := g.codec.Verify(rawToken)
	if err != nil {
		return "", nil, err
	}

	revoked, err := g.registry.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return "", nil, apperrors.Wrapf(apperrors.ErrResolution, "revocation check: %v", err)
	}
	if revoked {
		return "", nil, apperrors.ErrTokenRevoked
	}

	sc, err := g.resolve(ctx, claims)
	if err != nil {
		if apperrors.IsIdentityConsistency(err) {
			g.revoke(ctx, claims, err.Error())
		}
		return "", nil, err
	}

	signed, _, err := g.codec.Mint(&users.Principal{
		ID:       sc.UserID,
		Role:     sc.Role,
		TenantID: sc.TenantID,
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "[Gatekeeper.Refresh] Mint")
	}

	// The rotation is atomic from the caller's view: if the old token cannot
	// be revoked, no fresh token is handed out. The minted string is never
	// disclosed, so failing here leaves exactly one live credential.
	if err := g.registry.Revoke(context.WithoutCancel(ctx), claims.TokenID(), claims.ExpiresAt.Time); err != nil {
		g.logger.Error().Err(err).Str("token_id", claims.TokenID()).Msg("failed to revoke rotated token")
		return "", nil, apperrors.Wrapf(apperrors.ErrResolution, "revoke rotated token: %v", err)
	}
	observability.RevocationsTotal.WithLabelValues("rotation").Inc()

	g.audit.Admitted(sc.UserID, "refresh", sc.TenantID)
	return signed, sc, nil
}

// Logout revokes the presented token. Expired or malformed tokens are
// already unusable and report success.
func (g *Gatekeeper) Logout(ctx context.Context, rawToken string) error {
	claims, err := g.codec.Verify(rawToken)
	if err != nil {
		return nil
	}

	if err := g.registry.Revoke(context.WithoutCancel(ctx), claims.TokenID(), claims.ExpiresAt.Time); err != nil {
		return apperrors.Wrapf(apperrors.ErrResolution, "revoke: %v", err)
	}
	observability.RevocationsTotal.WithLabelValues("logout").Inc()
	g.audit.Revoked(claims.TokenID(), "logout", claims.ExpiresAt.Time)
	return nil
}

// Audit exposes the trail for middleware that records its own outcomes.
func (g *Gatekeeper) Audit() *AuditTrail {
	return g.audit
}
