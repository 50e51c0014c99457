package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// PermissionsHandler manages the permission catalogue endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	gate      Gate
	validator *validator.Validate
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, gate Gate) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermPermissionsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyRole(shared.RoleAdmin))
		r.Post("/", h.create)
	})
}

type permissionRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=128"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

func (h *PermissionsHandler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *PermissionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	perm, err := h.service.EnsurePermission(r.Context(), req.Name, req.Category)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"permission": perm})
}
