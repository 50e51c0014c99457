package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/shared"
)

// GrantResolver re-reads live role/permission state for a user.
type GrantResolver interface {
	Resolve(ctx context.Context, userID int64) (rbac.Grants, error)
}

// LoginRecorder queues the best-effort last_login touch off the request path.
type LoginRecorder interface {
	EnqueueTouchLastLogin(ctx context.Context, userID int64) error
}

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	resolver   GrantResolver
	recorder   LoginRecorder
	logger     *slog.Logger
	bcryptCost int
}

// NewService constructs a Service. recorder may be nil; last_login is then
// stamped directly.
func NewService(repo Repository, resolver GrantResolver, recorder LoginRecorder, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost < 10 {
		bcryptCost = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, resolver: resolver, recorder: recorder, logger: logger, bcryptCost: bcryptCost}
}

// Authenticate validates tenant/email/password credentials. Every failure
// path returns the same error so responses cannot reveal whether the email
// exists.
func (s *Service) Authenticate(ctx context.Context, tenantID int64, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	s.touchLastLogin(ctx, user.ID)
	return user, nil
}

// touchLastLogin updates last_login without ever blocking or failing the
// authentication decision.
func (s *Service) touchLastLogin(ctx context.Context, userID int64) {
	if s.recorder != nil {
		if err := s.recorder.EnqueueTouchLastLogin(ctx, userID); err == nil {
			return
		} else {
			s.logger.Warn("enqueue last_login touch", slog.Any("error", err))
		}
	}
	if err := s.repo.TouchLastLogin(ctx, userID); err != nil {
		s.logger.Warn("touch last_login", slog.Any("error", err))
	}
}

// Register hashes the password and creates the user together with its default
// role association. A tenant-scoped email collision yields shared.ErrDuplicate.
func (s *Service) Register(ctx context.Context, tenantID int64, email, fullName, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, User{
		TenantID:     tenantID,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	})
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, string(hash))
}

// LoadSession re-reads the subject's current roles and permissions from the
// graph. A subject that no longer resolves to an active user fails closed:
// the caller must treat the token as invalid.
func (s *Service) LoadSession(ctx context.Context, userID int64) (*shared.Session, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidToken
	}
	grants, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles := grants.RoleNames()
	if roles == nil {
		roles = []string{}
	}
	perms := grants.PermissionNames()
	if perms == nil {
		perms = []string{}
	}
	return &shared.Session{
		User:        user.SessionUser(),
		Roles:       roles,
		Permissions: perms,
	}, nil
}
