package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatlift/chatlift/internal/shared"
)

// RepositoryPort defines data access methods for the role/permission graph.
type RepositoryPort interface {
	ListRoles(ctx context.Context, tenantID int64) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, tenantID *int64) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	UpsertPermission(ctx context.Context, name, category string) (Permission, error)
	AssignRoleToUser(ctx context.Context, userID, roleID int64) error
	RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error
	AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error
	RolesForUser(ctx context.Context, userID int64) ([]Role, error)
	PermissionsForUser(ctx context.Context, userID int64) ([]Permission, error)
	PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error)
}

// Service orchestrates role/permission graph operations.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Resolve re-reads the live role/permission state for a user. Callers must
// not cache the result across requests; grants can change between token
// issuance and use.
func (s *Service) Resolve(ctx context.Context, userID int64) (Grants, error) {
	roles, err := s.repo.RolesForUser(ctx, userID)
	if err != nil {
		return Grants{}, err
	}
	perms, err := s.repo.PermissionsForUser(ctx, userID)
	if err != nil {
		return Grants{}, err
	}
	return Grants{Roles: roles, Permissions: perms}, nil
}

// ListRoles returns system roles plus the tenant's roles.
func (s *Service) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

// GetRole fetches a role visible to the tenant: its own roles plus the
// system roles.
func (s *Service) GetRole(ctx context.Context, tenantID, id int64) (Role, error) {
	return s.visibleRole(ctx, tenantID, id)
}

// visibleRole loads a role and hides it from other tenants. Roles owned by a
// different tenant answer not-found rather than forbidden, so ids cannot be
// probed across tenants.
func (s *Service) visibleRole(ctx context.Context, tenantID, roleID int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if role.TenantID != nil && *role.TenantID != tenantID {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

// CreateRole inserts a tenant-scoped role.
func (s *Service) CreateRole(ctx context.Context, tenantID int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description), &tenantID)
}

// UpdateRole updates a role the tenant can see. System-protected roles
// cannot be renamed.
func (s *Service) UpdateRole(ctx context.Context, tenantID, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	current, err := s.visibleRole(ctx, tenantID, id)
	if err != nil {
		return Role{}, err
	}
	if shared.IsProtectedRole(current.Name) && name != current.Name {
		return Role{}, shared.ErrProtectedRole
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role and cascades its associations. Deleting a role
// named "admin" or "user" always fails, regardless of the caller's grants.
func (s *Service) DeleteRole(ctx context.Context, tenantID, id int64) error {
	role, err := s.visibleRole(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if shared.IsProtectedRole(role.Name) {
		return shared.ErrProtectedRole
	}
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the permission catalogue.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission. The category defaults to the part of
// the name before the first dot.
func (s *Service) EnsurePermission(ctx context.Context, name, category string) (Permission, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" || !strings.Contains(name, ".") {
		return Permission{}, fmt.Errorf("%w: permission name must be category.action", shared.ErrValidation)
	}
	if category == "" {
		category = name[:strings.Index(name, ".")]
	}
	return s.repo.UpsertPermission(ctx, name, category)
}

// AssignRole assigns a tenant-visible role to a user. Assigning an
// already-held role is a no-op success.
func (s *Service) AssignRole(ctx context.Context, tenantID, userID, roleID int64) error {
	if _, err := s.visibleRole(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.repo.AssignRoleToUser(ctx, userID, roleID)
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, tenantID, userID, roleID int64) error {
	if _, err := s.visibleRole(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.repo.RemoveRoleFromUser(ctx, userID, roleID)
}

// AssignPermission attaches a permission to a tenant-visible role,
// idempotently.
func (s *Service) AssignPermission(ctx context.Context, tenantID, roleID, permissionID int64) error {
	if _, err := s.visibleRole(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.repo.AttachPermissionToRole(ctx, roleID, permissionID)
}

// RemovePermission detaches a permission from a role.
func (s *Service) RemovePermission(ctx context.Context, tenantID, roleID, permissionID int64) error {
	if _, err := s.visibleRole(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.repo.DetachPermissionFromRole(ctx, roleID, permissionID)
}

// RolePermissions lists the permissions attached to a tenant-visible role.
func (s *Service) RolePermissions(ctx context.Context, tenantID, roleID int64) ([]Permission, error) {
	if _, err := s.visibleRole(ctx, tenantID, roleID); err != nil {
		return nil, err
	}
	return s.repo.PermissionsForRole(ctx, roleID)
}
