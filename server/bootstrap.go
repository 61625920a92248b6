package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

const DefaultSuperAdminEmail = "admin@system.local"

// BootstrapSuperAdmin creates the platform super-admin account on first run.
// Returns the generated password on creation (empty string if the account
// already exists).
func (s *Server) BootstrapSuperAdmin(ctx context.Context) (generatedPassword string, err error) {
	_, err = s.repos.Users.GetByEmail(ctx, DefaultSuperAdminEmail)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", errors.Wrap(err, "[BootstrapSuperAdmin] GetByEmail")
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "[BootstrapSuperAdmin] rand.Read")
	}
	generatedPassword = base64.URLEncoding.EncodeToString(raw)

	hash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return "", errors.Wrap(err, "[BootstrapSuperAdmin] HashPassword")
	}

	if err := s.repos.Users.Upsert(ctx, &users.Principal{
		ID:           uuid.New().String(),
		Email:        DefaultSuperAdminEmail,
		PasswordHash: hash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         users.RoleSuperAdmin,
	}); err != nil {
		return "", errors.Wrap(err, "[BootstrapSuperAdmin] Upsert")
	}

	s.logger.Info().
		Str("email", DefaultSuperAdminEmail).
		Msg("super admin created; the generated password is printed once on stdout")
	return generatedPassword, nil
}
