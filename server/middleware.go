package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/internal/observability"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

// Authenticate runs the full admission pipeline and attaches the resolved
// SecurityContext to the request. Every failure except an infrastructure
// one yields a uniform 401; a storage outage during resolution is a 500,
// never proof of invalid credentials.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := bearerToken(r)
		if rawToken == "" {
			s.deny(w, r, "", apperrors.ErrTokenMissing)
			return
		}

		sc, err := s.gate.Authenticate(r.Context(), rawToken)
		if err != nil {
			s.deny(w, r, "", err)
			return
		}

		observability.AdmissionsTotal.Inc()
		next.ServeHTTP(w, r.WithContext(auth.WithSecurityContext(r.Context(), *sc)))
	})
}

// RequireRole denies with 403 unless the authenticated caller holds role.
// Composed without Authenticate it fails closed with 401.
func (s *Server) RequireRole(role users.RoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, ok := auth.FromContext(r.Context())
			if !ok {
				s.deny(w, r, "", apperrors.ErrTokenMissing)
				return
			}
			if sc.Role != role {
				s.forbid(w, r, sc.UserID, apperrors.ErrRoleMismatch)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin denies everyone but the platform-super role.
func (s *Server) RequireSuperAdmin(next http.Handler) http.Handler {
	return s.RequireRole(users.RoleSuperAdmin)(next)
}

// RequireTenant demands a business-account binding. The platform-super role
// is exempt and passes unconditionally, even with no tenant.
func (s *Server) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := auth.FromContext(r.Context())
		if !ok {
			s.deny(w, r, "", apperrors.ErrTokenMissing)
			return
		}
		if !sc.IsSuperAdmin() && sc.TenantID == nil {
			s.forbid(w, r, sc.UserID, apperrors.ErrTenantRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit guards authentication-attempt endpoints per client address. The
// 429 is deliberately distinguishable from an authentication failure.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !s.limiter.Allow(key) {
			observability.RateLimitRejectedTotal.Inc()
			s.gate.Audit().RateLimited(key, r.Method+" "+r.URL.Path)
			writeTooManyAttempts(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// deny terminates the request for an authentication failure: 401 for
// anything identity-related, 500 only for infrastructure failures.
func (s *Server) deny(w http.ResponseWriter, r *http.Request, actor string, err error) {
	reason := denialReason(err)
	observability.DenialsTotal.WithLabelValues(reason).Inc()
	s.gate.Audit().Denied(actor, r.Method+" "+r.URL.Path, reason)

	if apperrors.Is(err, apperrors.ErrResolution) {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("identity resolution failed")
		writeInternalError(w)
		return
	}
	writeUnauthorized(w)
}

func (s *Server) forbid(w http.ResponseWriter, r *http.Request, actor string, err error) {
	reason := denialReason(err)
	observability.DenialsTotal.WithLabelValues(reason).Inc()
	s.gate.Audit().Denied(actor, r.Method+" "+r.URL.Path, reason)
	writeForbidden(w)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func denialReason(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrTokenMissing):
		return "token_missing"
	case apperrors.Is(err, apperrors.ErrTokenMalformed):
		return "token_malformed"
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		return "token_expired"
	case apperrors.Is(err, apperrors.ErrTokenRevoked):
		return "token_revoked"
	case apperrors.Is(err, apperrors.ErrPrincipalNotFound):
		return "principal_not_found"
	case apperrors.Is(err, apperrors.ErrPrincipalSuspended):
		return "principal_suspended"
	case apperrors.Is(err, apperrors.ErrTenantNotFound):
		return "tenant_not_found"
	case apperrors.Is(err, apperrors.ErrTenantInactive):
		return "tenant_inactive"
	case apperrors.Is(err, apperrors.ErrTenantDeleted):
		return "tenant_deleted"
	case apperrors.Is(err, apperrors.ErrRoleMismatch):
		return "role_mismatch"
	case apperrors.Is(err, apperrors.ErrTenantRequired):
		return "tenant_required"
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		return "invalid_credentials"
	case apperrors.Is(err, apperrors.ErrResolution):
		return "resolution_error"
	}
	return "unknown"
}
