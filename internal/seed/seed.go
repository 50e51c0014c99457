package seed

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatlift/chatlift/internal/shared"
)

// Options controls what Run provisions beyond the RBAC baseline.
type Options struct {
	DefaultTenantSlug string
	AdminEmail        string
	AdminPassword     string
	BcryptCost        int
}

// Run provisions the default tenant, the permission catalog, the system
// roles, and the initial admin account. Every statement is an upsert so the
// seed can run on every boot without clobbering operator changes.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, opts Options) error {
	if opts.DefaultTenantSlug == "" {
		opts.DefaultTenantSlug = "default"
	}
	if opts.BcryptCost < bcrypt.MinCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var tenantID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO tenants (name, slug, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET updated_at = NOW()
		RETURNING id`, "Default", opts.DefaultTenantSlug).Scan(&tenantID); err != nil {
		return err
	}

	for _, scope := range shared.CoreScopes() {
		category, _, _ := strings.Cut(scope, ".")
		if _, err := tx.Exec(ctx, `
			INSERT INTO permissions (name, category)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category`, scope, category); err != nil {
			return err
		}
	}

	// System roles carry a NULL tenant_id and are visible to every tenant.
	roles := []struct {
		name        string
		description string
	}{
		{shared.RoleAdmin, "Full access to the admin application"},
		{shared.RoleUser, "Default role for newly registered accounts"},
	}
	roleIDs := make(map[string]int64, len(roles))
	for _, role := range roles {
		var id int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, description, tenant_id, created_at, updated_at)
			VALUES ($1, $2, NULL, NOW(), NOW())
			ON CONFLICT (name, tenant_id) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
			RETURNING id`, role.name, role.description).Scan(&id); err != nil {
			return err
		}
		roleIDs[role.name] = id
	}

	// Admin holds every core permission explicitly even though the gate
	// short-circuits on the role name.
	if _, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		SELECT $1, p.id, NOW() FROM permissions p
		ON CONFLICT DO NOTHING`, roleIDs[shared.RoleAdmin]); err != nil {
		return err
	}

	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		if err := seedAdminUser(ctx, tx, tenantID, roleIDs[shared.RoleAdmin], opts); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("seed complete", slog.String("tenant", opts.DefaultTenantSlug))
	}
	return nil
}

func seedAdminUser(ctx context.Context, tx pgx.Tx, tenantID, adminRoleID int64, opts Options) error {
	var userID int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM users WHERE tenant_id = $1 AND email = $2`,
		tenantID, opts.AdminEmail).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), opts.BcryptCost)
		if hashErr != nil {
			return hashErr
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (tenant_id, email, password_hash, full_name, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, 'Administrator', TRUE, NOW(), NOW())
			RETURNING id`, tenantID, opts.AdminEmail, string(hash)).Scan(&userID); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, userID, adminRoleID)
	return err
}
