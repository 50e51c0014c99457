package users

import (
	"context"

	"github.com/chatlift/chatlift/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, tenantID int64, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, tenantID, id int64) (User, error)
	SetActive(ctx context.Context, tenantID, id int64, active bool) (User, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

// Service handles user administration logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns one page of the tenant's users.
func (s *Service) List(ctx context.Context, tenantID int64, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, tenantID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (User, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// SetActive activates or deactivates a user. A deactivated user's still-valid
// tokens stop authorizing requests at the next session load.
func (s *Service) SetActive(ctx context.Context, tenantID, id int64, active bool) (User, error) {
	return s.repo.SetActive(ctx, tenantID, id, active)
}

// Delete removes a user entirely.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	return s.repo.Delete(ctx, tenantID, id)
}
