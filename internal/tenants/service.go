package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatlift/chatlift/internal/shared"
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	GetByID(ctx context.Context, id int64) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Create(ctx context.Context, t Tenant) (Tenant, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles tenant business logic.
type Service struct {
	repo        RepositoryPort
	defaultSlug string
}

// NewService builds a Service instance. defaultSlug names the tenant used
// when a request carries no X-Tenant header.
func NewService(repo RepositoryPort, defaultSlug string) *Service {
	return &Service{repo: repo, defaultSlug: defaultSlug}
}

// ResolveSlug returns the tenant for the given slug, falling back to the
// default tenant when slug is empty.
func (s *Service) ResolveSlug(ctx context.Context, slug string) (Tenant, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = s.defaultSlug
	}
	return s.repo.GetBySlug(ctx, Slugify(slug))
}

// Get fetches a tenant by id.
func (s *Service) Get(ctx context.Context, id int64) (Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Create provisions a new tenant. The slug derives from the name unless
// provided explicitly.
func (s *Service) Create(ctx context.Context, name, slug, logoURL, primaryColor string) (Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tenant{}, fmt.Errorf("%w: tenant name required", shared.ErrValidation)
	}
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return Tenant{}, fmt.Errorf("%w: tenant slug required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Tenant{
		Name:         name,
		Slug:         slug,
		LogoURL:      strings.TrimSpace(logoURL),
		PrimaryColor: strings.TrimSpace(primaryColor),
	})
}

// Delete removes a tenant and, through cascading foreign keys, everything it
// owns.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
