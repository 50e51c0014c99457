package httpx

import (
	"errors"
	"net/http"

	"github.com/chatlift/chatlift/internal/shared"
)

// RespondError maps domain errors to the uniform error body.
// Unexpected errors never leak internals; callers log them before returning.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, shared.ErrInvalidToken):
		Error(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, shared.ErrForbidden):
		Error(w, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, shared.ErrProtectedRole):
		Error(w, http.StatusForbidden, "System roles cannot be modified")
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, shared.ErrRateLimited):
		Error(w, http.StatusTooManyRequests, "Too many attempts, try again later")
	default:
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
