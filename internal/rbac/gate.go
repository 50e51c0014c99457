package rbac

import (
	"log/slog"
	"net/http"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// Gate wires the per-request authorization predicates for HTTP handlers.
// Both predicates run against the session loaded into the request context;
// a missing session is always a 401, checked before any grant comparison so
// status codes stay correct (no credentials vs insufficient grant).
type Gate struct {
	Logger *slog.Logger
}

// RequireAnyRole allows the request iff the session's role set intersects the
// given names. Denials list the satisfying roles.
func (g Gate) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if sess.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			g.deny(w, r, map[string]any{"required_roles": roles})
		})
	}
}

// RequireAnyPermission allows the request iff the session grants at least one
// of the given permissions. Holding the admin role satisfies the check
// unconditionally.
func (g Gate) RequireAnyPermission(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, perm := range perms {
				if sess.HasPermission(perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			g.deny(w, r, map[string]any{"required_permissions": perms})
		})
	}
}

func (g Gate) deny(w http.ResponseWriter, r *http.Request, detail map[string]any) {
	if g.Logger != nil {
		g.Logger.Warn("authorization denied", slog.String("path", r.URL.Path))
	}
	httpx.ErrorWithDetails(w, http.StatusForbidden, "Insufficient permissions", []any{detail})
}
