package widgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatlift/chatlift/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const styleColumns = `id, tenant_id, name, primary_color, position, greeting, embed_key, created_at, updated_at`

func scanStyle(row pgx.Row) (Style, error) {
	var s Style
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.PrimaryColor, &s.Position,
		&s.Greeting, &s.EmbedKey, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// List returns the tenant's widget styles.
func (r *Repository) List(ctx context.Context, tenantID int64) ([]Style, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+styleColumns+` FROM widget_styles WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Style
	for rows.Next() {
		s, err := scanStyle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get fetches one style within the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (Style, error) {
	s, err := scanStyle(r.pool.QueryRow(ctx,
		`SELECT `+styleColumns+` FROM widget_styles WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Style{}, shared.ErrNotFound
		}
		return Style{}, err
	}
	return s, nil
}

// Create inserts a new style.
func (r *Repository) Create(ctx context.Context, s Style) (Style, error) {
	return scanStyle(r.pool.QueryRow(ctx,
		`INSERT INTO widget_styles (tenant_id, name, primary_color, position, greeting, embed_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+styleColumns,
		s.TenantID, s.Name, s.PrimaryColor, s.Position, s.Greeting, s.EmbedKey))
}

// Update replaces the editable fields.
func (r *Repository) Update(ctx context.Context, s Style) (Style, error) {
	updated, err := scanStyle(r.pool.QueryRow(ctx,
		`UPDATE widget_styles SET name = $3, primary_color = $4, position = $5, greeting = $6, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING `+styleColumns,
		s.TenantID, s.ID, s.Name, s.PrimaryColor, s.Position, s.Greeting))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Style{}, shared.ErrNotFound
		}
		return Style{}, err
	}
	return updated, nil
}

// Delete removes a style.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM widget_styles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
