package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// RolesHandler manages role administration endpoints.
type RolesHandler struct {
	logger    *slog.Logger
	service   *Service
	gate      Gate
	validator *validator.Validate
}

// NewRolesHandler builds a RolesHandler instance.
func NewRolesHandler(logger *slog.Logger, service *Service, gate Gate) *RolesHandler {
	return &RolesHandler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermRolesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermRolesEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/permissions", h.assignPermission)
		r.Delete("/{id}/permissions/{permissionID}", h.removePermission)
	})
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type assignPermissionRequest struct {
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

func (h *RolesHandler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	roles, err := h.service.ListRoles(r.Context(), sess.User.TenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *RolesHandler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), sess.User.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *RolesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	sess := shared.SessionFromContext(r.Context())
	role, err := h.service.CreateRole(r.Context(), sess.User.TenantID, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"role": role})
}

func (h *RolesHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	sess := shared.SessionFromContext(r.Context())
	role, err := h.service.UpdateRole(r.Context(), sess.User.TenantID, id, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *RolesHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.DeleteRole(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Role deleted"})
}

func (h *RolesHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	perms, err := h.service.RolePermissions(r.Context(), sess.User.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *RolesHandler) assignPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req assignPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.AssignPermission(r.Context(), sess.User.TenantID, id, req.PermissionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Permission assigned"})
}

func (h *RolesHandler) removePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	permID, ok := h.idParam(w, r, "permissionID")
	if !ok {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.RemovePermission(r.Context(), sess.User.TenantID, id, permID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Permission removed"})
}

func (h *RolesHandler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
