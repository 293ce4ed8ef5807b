package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// RepositoryPort defines data access for groups and permissions.
type RepositoryPort interface {
	FirstGroup(ctx context.Context, userID int64) (int64, error)
	GroupHasCodename(ctx context.Context, groupID int64, codename string) (bool, error)
	Codenames(ctx context.Context) (map[string]struct{}, error)

	ListGroups(ctx context.Context) ([]Group, error)
	GetGroupByName(ctx context.Context, name string) (*Group, error)
	EnsureGroup(ctx context.Context, name string) (int64, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, codename, label string) (int64, error)
	GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error)
	AttachPermission(ctx context.Context, groupID, permissionID int64) error
	DetachPermission(ctx context.Context, groupID, permissionID int64) error
	ReplaceUserGroup(ctx context.Context, userID, groupID int64) error
	RemoveUserGroup(ctx context.Context, userID, groupID int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FirstGroup returns the user's group, oldest assignment first.
func (r *Repository) FirstGroup(ctx context.Context, userID int64) (int64, error) {
	var groupID int64
	err := r.pool.QueryRow(ctx, `
		SELECT group_id FROM user_groups
		WHERE user_id = $1
		ORDER BY assigned_at, group_id
		LIMIT 1
	`, userID).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, authz.ErrNoGroup
		}
		return 0, err
	}
	return groupID, nil
}

// GroupHasCodename reports whether the group holds the permission.
func (r *Repository) GroupHasCodename(ctx context.Context, groupID int64, codename string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_permissions gp
			JOIN permissions p ON p.id = gp.permission_id
			WHERE gp.group_id = $1 AND p.codename = $2
		)
	`, groupID, codename).Scan(&exists)
	return exists, err
}

// Codenames returns every codename in the catalog.
func (r *Repository) Codenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT codename FROM permissions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var codename string
		if err := rows.Scan(&codename); err != nil {
			return nil, err
		}
		known[codename] = struct{}{}
	}
	return known, rows.Err()
}

// ListGroups returns all groups ordered by name.
func (r *Repository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroupByName fetches a group by its name.
func (r *Repository) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM groups WHERE name = $1`, name).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// EnsureGroup inserts the group if absent and returns its id.
func (r *Repository) EnsureGroup(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	return id, err
}

// ListPermissions returns the whole catalog ordered by codename.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, codename, label FROM permissions ORDER BY codename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Codename, &p.Label); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsurePermission inserts the permission if absent and returns its id.
func (r *Repository) EnsurePermission(ctx context.Context, codename, label string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (codename, label) VALUES ($1, $2)
		ON CONFLICT (codename) DO UPDATE SET label = EXCLUDED.label
		RETURNING id
	`, codename, label).Scan(&id)
	return id, err
}

// GroupPermissions returns the permissions granted to a group.
func (r *Repository) GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.codename, p.label
		FROM group_permissions gp
		JOIN permissions p ON p.id = gp.permission_id
		WHERE gp.group_id = $1
		ORDER BY p.codename
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Codename, &p.Label); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// AttachPermission grants a permission to a group, idempotently.
func (r *Repository) AttachPermission(ctx context.Context, groupID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_permissions (group_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, permissionID)
	return err
}

// DetachPermission revokes a permission from a group.
func (r *Repository) DetachPermission(ctx context.Context, groupID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM group_permissions WHERE group_id = $1 AND permission_id = $2
	`, groupID, permissionID)
	return err
}

// ReplaceUserGroup swaps the user's group assignment, keeping the
// single-group invariant.
func (r *Repository) ReplaceUserGroup(ctx context.Context, userID, groupID int64) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM user_groups WHERE user_id = $1`, userID)
	batch.Queue(`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)`, userID, groupID)
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	if _, err := results.Exec(); err != nil {
		return err
	}
	_, err := results.Exec()
	return err
}

// RemoveUserGroup removes a user from a group.
func (r *Repository) RemoveUserGroup(ctx context.Context, userID, groupID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2
	`, userID, groupID)
	return err
}
