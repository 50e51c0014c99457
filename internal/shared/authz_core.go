package shared

// Core platform permissions, "category.action" form.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermTenantsView = "tenants.view"
	PermTenantsEdit = "tenants.edit"

	PermWidgetsView = "widgets.view"
	PermWidgetsEdit = "widgets.edit"
)

// CoreScopes lists every permission seeded for the admin application.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermPermissionsEdit,
		PermTenantsView,
		PermTenantsEdit,
		PermWidgetsView,
		PermWidgetsEdit,
	}
}
