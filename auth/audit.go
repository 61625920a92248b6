package auth

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// AuditTrail is the security-audit log, kept distinct from the general
// application log. Every denial and admission is recorded with actor, action
// and outcome. Raw tokens are never written; only token IDs appear. Audit
// writes never block or alter the admission decision.
type AuditTrail struct {
	logger zerolog.Logger
}

func NewAuditTrail(w io.Writer) *AuditTrail {
	if w == nil {
		w = os.Stderr
	}
	return &AuditTrail{
		logger: zerolog.New(w).With().
			Timestamp().
			Str("component", "security_audit").
			Logger(),
	}
}

// Denied records a rejected admission attempt. actor is the subject user ID
// when resolvable, empty otherwise.
func (a *AuditTrail) Denied(actor, action, reason string) {
	a.logger.Warn().
		Str("actor", orUnknown(actor)).
		Str("action", action).
		Str("outcome", "denied").
		Str("reason", reason).
		Msg("admission denied")
}

// Admitted records a successful admission.
func (a *AuditTrail) Admitted(userID, action string, tenantID *string) {
	e := a.logger.Info().
		Str("actor", userID).
		Str("action", action).
		Str("outcome", "admitted")
	if tenantID != nil {
		e = e.Str("tenant_id", *tenantID)
	}
	e.Msg("admission granted")
}

// Revoked records a token revocation side effect by token ID.
func (a *AuditTrail) Revoked(tokenID, reason string, expiresAt time.Time) {
	a.logger.Warn().
		Str("token_id", tokenID).
		Str("reason", reason).
		Time("token_expires_at", expiresAt).
		Msg("token revoked")
}

// RateLimited records an exhausted authentication window for a client key.
func (a *AuditTrail) RateLimited(clientKey, action string) {
	a.logger.Warn().
		Str("client_key", clientKey).
		Str("action", action).
		Str("outcome", "rate_limited").
		Msg("too many attempts")
}

func orUnknown(actor string) string {
	if actor == "" {
		return "unknown"
	}
	return actor
}
