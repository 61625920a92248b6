package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a user role either at platform or business-account level
type RoleType string

const (
	// RoleSuperAdmin is the platform-wide role. It is tenant-exempt: a super
	// admin is never bound to a business account and bypasses tenant checks
	// everywhere.
	RoleSuperAdmin RoleType = "SUPER_ADMIN"

	// Business-account roles
	RoleAdmin RoleType = "ADMIN" // Manages users and settings within a business account
	RoleUser  RoleType = "USER"  // Regular member of a business account
)

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated actor. Created by user management; the
// admission gate only reads it.
type Principal struct {
	ID           string     `json:"id,omitempty"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"` // Never serialize
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Role         RoleType   `json:"role,omitempty"`
	TenantID     *string    `json:"tenant_id,omitempty"` // Business account; nil for SUPER_ADMIN
	IsDeleted    bool       `json:"is_deleted,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
	LastLogin    time.Time  `json:"last_login,omitempty"`
}

// Active reports whether the principal may be admitted. A soft-deleted
// principal (either flag or timestamp) must never be admitted.
func (p *Principal) Active() bool {
	return !p.IsDeleted && p.DeletedAt == nil
}

// IsSuperAdmin returns true if the principal holds the platform-wide role
func (p *Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
