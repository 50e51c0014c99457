package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/chatlift/chatlift/internal/platform/httpx"
	"github.com/chatlift/chatlift/internal/shared"
)

// Middleware verifies the bearer token and loads the live session into the
// request context. Verification is purely cryptographic; the session load
// re-reads roles and permissions from the database on every request.
type Middleware struct {
	Tokens  *TokenManager
	Service *Service
	Logger  *slog.Logger
}

// RequireSession rejects requests without a valid token and resolvable
// subject with 401 before any downstream authorization check runs.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		userID, err := m.Tokens.Verify(raw)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		sess, err := m.Service.LoadSession(r.Context(), userID)
		if err != nil {
			if err != shared.ErrInvalidToken && m.Logger != nil {
				m.Logger.Error("load session", slog.Any("error", err))
			}
			httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := shared.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
