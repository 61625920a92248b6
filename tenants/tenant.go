package tenants

import "time"

// Tenant represents a business account: an isolated customer organization
// owning a subset of application data.
type Tenant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Live reports whether principals bound to this tenant may be admitted.
// Deactivation and soft-deletion both close the account.
func (t *Tenant) Live() bool {
	return t.IsActive && t.DeletedAt == nil
}
