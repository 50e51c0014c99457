package widgets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/shared"
)

// Handler manages widget style endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      rbac.Gate
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate rbac.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers widget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermWidgetsView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/embed", h.embed)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(shared.PermWidgetsEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type styleRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	PrimaryColor string `json:"primary_color" validate:"omitempty,hexcolor"`
	Position     string `json:"position" validate:"omitempty,oneof=bottom-right bottom-left top-right top-left"`
	Greeting     string `json:"greeting" validate:"omitempty,max=255"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	styles, err := h.service.List(r.Context(), sess.User.TenantID)
	if err != nil {
		h.logger.Error("list widget styles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"widgets": styles})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	style, err := h.service.Get(r.Context(), sess.User.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"widget": style})
}

func (h *Handler) embed(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	code, err := h.service.Embed(r.Context(), sess.User.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"embed_code": code})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	style, err := h.service.Create(r.Context(), Style{
		TenantID:     sess.User.TenantID,
		Name:         req.Name,
		PrimaryColor: req.PrimaryColor,
		Position:     req.Position,
		Greeting:     req.Greeting,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"widget": style})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	style, err := h.service.Update(r.Context(), Style{
		ID:           id,
		TenantID:     sess.User.TenantID,
		Name:         req.Name,
		PrimaryColor: req.PrimaryColor,
		Position:     req.Position,
		Greeting:     req.Greeting,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"widget": style})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess.User.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Widget deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (styleRequest, bool) {
	var req styleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return styleRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return styleRequest{}, false
	}
	return req, true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
