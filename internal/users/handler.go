package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chatlift/chatlift/internal/auth"
	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/shared"
)

// Creator provisions a user together with its default role association in
// one transaction. *auth.Service satisfies it.
type Creator interface {
	Register(ctx context.Context, tenantID int64, email, fullName, password string) (*auth.User, error)
}

// Handler manages user administration endpoints, including role assignment.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      *rbac.Service
	creator   Creator
	gate      rbac.Gate
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacService *rbac.Service, creator Creator, gate rbac.Gate) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacService, creator: creator, gate: gate, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermUsersView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/roles", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyRole(shared.RoleAdmin))
		r.Post("/", h.create)
		r.Put("/{id}/active", h.setActive)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/roles", h.assignRole)
		r.Delete("/{id}/roles/{roleID}", h.removeRole)
	})
}

type createRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type assignRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, pagination, err := h.service.List(r.Context(), sess.User.TenantID, page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": list, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), sess.User.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	user, err := h.creator.Register(r.Context(), sess.User.TenantID, req.Email, req.FullName, req.Password)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": user.SessionUser()})
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	user, err := h.service.SetActive(r.Context(), sess.User.TenantID, id, *req.Active)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "User deleted"})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.service.Get(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	grants, err := h.rbac.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Error("resolve grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"roles":       grants.Roles,
		"permissions": grants.Permissions,
	})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	if _, err := h.service.Get(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.rbac.AssignRole(r.Context(), sess.User.TenantID, id, req.RoleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Role assigned"})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := h.idParam(w, r, "roleID")
	if !ok {
		return
	}
	if _, err := h.service.Get(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.rbac.RemoveRole(r.Context(), sess.User.TenantID, id, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Role removed"})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
