package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlift/chatlift/internal/shared"
)

func gateRequest(t *testing.T, mw func(http.Handler) http.Handler, sess *shared.Session) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	return res
}

func TestGateRequiresSessionBeforeGrantCheck(t *testing.T) {
	gate := Gate{}

	// No session at all: 401, never 403, even though the grant check would
	// also fail.
	res := gateRequest(t, gate.RequireAnyRole("admin"), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = gateRequest(t, gate.RequireAnyPermission("users.view"), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAnyRole(t *testing.T) {
	gate := Gate{}
	sess := &shared.Session{Roles: []string{"support"}}

	res := gateRequest(t, gate.RequireAnyRole("admin", "support"), sess)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = gateRequest(t, gate.RequireAnyRole("admin"), sess)
	require.Equal(t, http.StatusForbidden, res.Code)

	var body struct {
		Message string `json:"message"`
		Errors  []struct {
			RequiredRoles []string `json:"required_roles"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient permissions", body.Message)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, []string{"admin"}, body.Errors[0].RequiredRoles)
}

func TestRequireAnyPermission(t *testing.T) {
	gate := Gate{}
	sess := &shared.Session{Roles: []string{"editor"}, Permissions: []string{"widgets.view"}}

	res := gateRequest(t, gate.RequireAnyPermission("widgets.view"), sess)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = gateRequest(t, gate.RequireAnyPermission("widgets.edit"), sess)
	require.Equal(t, http.StatusForbidden, res.Code)

	var body struct {
		Errors []struct {
			RequiredPermissions []string `json:"required_permissions"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, []string{"widgets.edit"}, body.Errors[0].RequiredPermissions)
}

func TestAdminBypassesPermissionChecks(t *testing.T) {
	gate := Gate{}
	sess := &shared.Session{Roles: []string{shared.RoleAdmin}}

	res := gateRequest(t, gate.RequireAnyPermission("anything.at-all"), sess)
	assert.Equal(t, http.StatusNoContent, res.Code)

	// The role bypass does not extend to role checks for other names.
	res = gateRequest(t, gate.RequireAnyRole("auditor"), sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
