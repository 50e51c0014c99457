package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/chatlift/chatlift/internal/auth"
	"github.com/chatlift/chatlift/internal/observability"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/tenants"
	"github.com/chatlift/chatlift/internal/users"
	"github.com/chatlift/chatlift/internal/widgets"
	"github.com/chatlift/chatlift/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	TenantMiddleware   tenants.Middleware
	AuthMiddleware     auth.Middleware
	AuthHandler        *auth.Handler
	RolesHandler       *rbac.RolesHandler
	PermissionsHandler *rbac.PermissionsHandler
	UsersHandler       *users.Handler
	TenantsHandler     *tenants.Handler
	WidgetsHandler     *widgets.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Chatlift defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	// Probes and scrapes stay up even when the tenant store is down, so
	// they mount outside the tenant-resolving group.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(params.TenantMiddleware.Resolve)

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}

		// Everything below requires a verified bearer token and a loaded session.
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireSession)

			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountRoutes)
			}
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.TenantsHandler != nil {
				r.Route("/tenants", params.TenantsHandler.MountRoutes)
			}
			if params.WidgetsHandler != nil {
				r.Route("/widgets", params.WidgetsHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
