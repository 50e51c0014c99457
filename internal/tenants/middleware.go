package tenants

import (
	"log/slog"
	"net/http"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// TenantHeader selects the tenant context for login and register. Absence
// implies the default tenant.
const TenantHeader = "X-Tenant"

// Middleware resolves the request's tenant into the context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Resolve loads the tenant named by the X-Tenant header (or the default
// tenant) and stores its id in the request context.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := m.Service.ResolveSlug(r.Context(), r.Header.Get(TenantHeader))
		if err != nil {
			if err == shared.ErrNotFound {
				httpx.Error(w, http.StatusNotFound, "Unknown tenant")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("resolve tenant", slog.Any("error", err))
			}
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		ctx := shared.ContextWithTenantID(r.Context(), tenant.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
