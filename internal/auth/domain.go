package auth

import (
	"time"

	"github.com/chatlift/chatlift/internal/shared"
)

// User represents an authenticated user account. The password is stored only
// as an adaptive one-way hash; plaintext is never persisted or logged.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	PasswordHash string
	FullName     string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionUser returns the serializable identity slice of the user.
func (u User) SessionUser() shared.SessionUser {
	return shared.SessionUser{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
}
