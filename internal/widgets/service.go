package widgets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chatlift/chatlift/internal/shared"
)

// Positions a widget may dock to.
var validPositions = map[string]struct{}{
	"bottom-right": {},
	"bottom-left":  {},
	"top-right":    {},
	"top-left":     {},
}

// RepositoryPort defines data access methods for widget styles.
type RepositoryPort interface {
	List(ctx context.Context, tenantID int64) ([]Style, error)
	Get(ctx context.Context, tenantID, id int64) (Style, error)
	Create(ctx context.Context, s Style) (Style, error)
	Update(ctx context.Context, s Style) (Style, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

// Service handles widget style logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func normalize(s Style) (Style, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return Style{}, fmt.Errorf("%w: widget name required", shared.ErrValidation)
	}
	if s.PrimaryColor == "" {
		s.PrimaryColor = "#4f46e5"
	}
	if s.Position == "" {
		s.Position = "bottom-right"
	}
	if _, ok := validPositions[s.Position]; !ok {
		return Style{}, fmt.Errorf("%w: invalid widget position", shared.ErrValidation)
	}
	if s.Greeting == "" {
		s.Greeting = "Hi there! How can we help?"
	}
	return s, nil
}

// List returns the tenant's widget styles.
func (s *Service) List(ctx context.Context, tenantID int64) ([]Style, error) {
	return s.repo.List(ctx, tenantID)
}

// Get fetches one style.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (Style, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Create inserts a style with a freshly minted embed key.
func (s *Service) Create(ctx context.Context, style Style) (Style, error) {
	style, err := normalize(style)
	if err != nil {
		return Style{}, err
	}
	style.EmbedKey = uuid.NewString()
	return s.repo.Create(ctx, style)
}

// Update replaces the editable fields; the embed key never changes.
func (s *Service) Update(ctx context.Context, style Style) (Style, error) {
	style, err := normalize(style)
	if err != nil {
		return Style{}, err
	}
	return s.repo.Update(ctx, style)
}

// Delete removes a style.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// Embed renders the embed snippet for one style.
func (s *Service) Embed(ctx context.Context, tenantID, id int64) (string, error) {
	style, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	return EmbedCode(style)
}
