package rbac

import "time"

// Role is a named bundle of permissions. TenantID nil means the role is
// system-wide (the seeded "admin" and "user" roles).
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TenantID    *int64    `json:"tenant_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is an atomic capability, named "category.action", globally
// unique.
type Permission struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

// RolePermission ties a permission to a role.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// Grants is the resolved role/permission state for one user: every role the
// user holds plus the de-duplicated union of those roles' permissions.
type Grants struct {
	Roles       []Role
	Permissions []Permission
}

// RoleNames returns the role names in assignment order.
func (g Grants) RoleNames() []string {
	names := make([]string, len(g.Roles))
	for i, r := range g.Roles {
		names[i] = r.Name
	}
	return names
}

// PermissionNames returns the de-duplicated permission names.
func (g Grants) PermissionNames() []string {
	names := make([]string, len(g.Permissions))
	for i, p := range g.Permissions {
		names[i] = p.Name
	}
	return names
}
