package errors

import (
	"errors"
	"fmt"
)

// Admission error taxonomy for the authentication and tenant-isolation gate.
// The identity-consistency errors (ErrPrincipalNotFound through
// ErrTenantDeleted) are terminal: the gate revokes the presented token before
// surfacing them.
var (
	// Token errors
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")

	// Identity-consistency errors
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrPrincipalSuspended = errors.New("principal suspended")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantInactive     = errors.New("tenant inactive")
	ErrTenantDeleted      = errors.New("tenant deleted")

	// Authorization errors
	ErrRoleMismatch   = errors.New("role mismatch")
	ErrTenantRequired = errors.New("tenant required")

	// Throttling
	ErrRateLimited = errors.New("too many attempts")

	// Infrastructure failure during identity resolution. Not a security
	// decision: surfaces as 500 and may be retried by the caller.
	ErrResolution = errors.New("identity resolution failed")

	// Credential errors (login endpoint)
	ErrInvalidCredentials = errors.New("invalid credentials")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// IsIdentityConsistency reports whether err is one of the five terminal
// identity-consistency failures that trigger token revocation.
func IsIdentityConsistency(err error) bool {
	return errors.Is(err, ErrPrincipalNotFound) ||
		errors.Is(err, ErrPrincipalSuspended) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrTenantInactive) ||
		errors.Is(err, ErrTenantDeleted)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
