package shared

import "time"

// System role names. Both are seeded at provisioning time and can never be
// deleted.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ProtectedRoles lists role names that deleteRole must always reject.
func ProtectedRoles() []string {
	return []string{RoleAdmin, RoleUser}
}

// IsProtectedRole reports whether the role name is system-protected.
func IsProtectedRole(name string) bool {
	return name == RoleAdmin || name == RoleUser
}

// SessionUser is the identity slice of a session, safe to serialize.
type SessionUser struct {
	ID        int64      `json:"id"`
	TenantID  int64      `json:"tenant_id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Session is the live, per-request authorization state. Roles and permissions
// are re-resolved from the database on every request; the bearer token's
// embedded claims are never consulted for authorization.
type Session struct {
	User        SessionUser `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
}

// HasRole reports whether the session holds the named role.
func (s *Session) HasRole(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the session grants the named permission.
// Holding the admin role satisfies every permission check unconditionally.
func (s *Session) HasPermission(name string) bool {
	if s == nil {
		return false
	}
	if s.HasRole(RoleAdmin) {
		return true
	}
	for _, p := range s.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// PrimaryRole derives the legacy single-role view: the first assigned role,
// or "user" when none is assigned.
func (s *Session) PrimaryRole() string {
	if s == nil || len(s.Roles) == 0 {
		return RoleUser
	}
	return s.Roles[0]
}
