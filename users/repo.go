package users

import "context"

// Store provides read access to principals for identity resolution, plus the
// writes user management needs. Implementations return
// apperrors.ErrNotFound when the principal does not exist so callers can
// tell "absent" apart from an infrastructure failure.
type Store interface {
	Upsert(ctx context.Context, principal *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	SoftDelete(ctx context.Context, id string) error
	SetLastLogin(ctx context.Context, id string) error
}
