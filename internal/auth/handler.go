package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chatlift/chatlift/internal/observability"
	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	tokens     *TokenManager
	throttle   *Throttle
	audit      *shared.AuditLogger
	metrics    *observability.Metrics
	middleware Middleware
	validator  *validator.Validate
}

// NewHandler constructs a Handler instance. throttle, audit and metrics may
// be nil.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenManager, throttle *Throttle, audit *shared.AuditLogger, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		tokens:     tokens,
		throttle:   throttle,
		audit:      audit,
		metrics:    metrics,
		middleware: Middleware{Tokens: tokens, Service: service, Logger: logger},
		validator:  validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.middleware.RequireSession)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
		r.Put("/password", h.handleChangePassword)
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}

	user, err := h.service.Register(r.Context(), tenantID, req.Email, req.FullName, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.Error("register user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, tenantID, user.ID, "auth.register", user)

	h.respondWithToken(w, r, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}

	ip := clientIP(r)
	if !h.throttle.Allow(r.Context(), tenantID, req.Email, ip) {
		h.metrics.RecordLogin("throttled")
		httpx.Error(w, http.StatusTooManyRequests, "Too many attempts, try again later")
		return
	}

	user, err := h.service.Authenticate(r.Context(), tenantID, req.Email, req.Password)
	if err != nil {
		// One generic message for unknown emails and wrong passwords alike.
		h.metrics.RecordLogin("failure")
		h.recordAudit(r, tenantID, 0, "auth.login_failed", nil)
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	h.throttle.Reset(r.Context(), tenantID, req.Email, ip)
	h.metrics.RecordLogin("success")
	h.recordAudit(r, tenantID, user.ID, "auth.login", user)

	h.respondWithToken(w, r, user)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": userPayload(sess)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless and stay valid until natural expiry; logout is an
	// advisory signal for the client to discard its copy.
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.recordAudit(r, sess.User.TenantID, sess.User.ID, "auth.logout", nil)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", httpx.FieldErrors(err))
		return
	}
	if err := h.service.ChangePassword(r.Context(), sess.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, sess.User.TenantID, sess.User.ID, "auth.password_changed", nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

// respondWithToken loads the fresh session, mints a token from it and writes
// the {token, user} body shared by login and register.
func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, user *User) {
	sess, err := h.service.LoadSession(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("load session after auth", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	token, err := h.tokens.Issue(user, sess.Roles)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userPayload(sess),
	})
}

// userPayload shapes the session for responses. The single "role" string is
// derived here for legacy consumers; the role list is the source of truth.
func userPayload(sess *shared.Session) map[string]any {
	return map[string]any{
		"id":          sess.User.ID,
		"tenant_id":   sess.User.TenantID,
		"email":       sess.User.Email,
		"full_name":   sess.User.FullName,
		"is_active":   sess.User.IsActive,
		"last_login":  sess.User.LastLogin,
		"role":        sess.PrimaryRole(),
		"roles":       sess.Roles,
		"permissions": sess.Permissions,
	}
}

// clientIP strips the ephemeral source port from RemoteAddr so throttle
// counters key on the host alone; reconnecting must not reset the window.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) recordAudit(r *http.Request, tenantID, actorID int64, action string, user *User) {
	if h.audit == nil {
		return
	}
	meta := map[string]any{"ip": r.RemoteAddr, "user_agent": r.UserAgent()}
	entityID := ""
	if user != nil {
		entityID = strconv.FormatInt(user.ID, 10)
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
