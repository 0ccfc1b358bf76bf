package roles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists roles in PostgreSQL. Grants are stored in the wire
// encoding (two semicolon-joined ID lists) and decoded on read.
type Repository struct {
	pool     *pgxpool.Pool
	registry *authz.Registry
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, registry *authz.Registry) *Repository {
	return &Repository{pool: pool, registry: registry}
}

// List returns all roles ordered by id.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, is_active, sections, areas, created_at, updated_at
		FROM roles ORDER BY id`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		var sections, areas string
		if err := rows.Scan(&role.ID, &role.Name, &role.IsActive, &sections, &areas, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Permissions = authz.DecodeGrants(r.registry, sections, areas)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Get returns a single role by id.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	var sections, areas string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, is_active, sections, areas, created_at, updated_at
		FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.IsActive, &sections, &areas, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, db.MapError(err)
	}
	role.Permissions = authz.DecodeGrants(r.registry, sections, areas)
	return role, nil
}

// Create inserts a role and returns it with timestamps populated.
func (r *Repository) Create(ctx context.Context, name string, isActive bool, set authz.Set) (Role, error) {
	sections, areas := authz.EncodeGrants(r.registry, set)
	var role Role
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, is_active, sections, areas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, name, is_active, created_at, updated_at`,
		name, isActive, sections, areas).
		Scan(&role.ID, &role.Name, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, db.MapError(err)
	}
	role.Permissions = set
	return role, nil
}

// Update rewrites a role's name, active flag and grants.
func (r *Repository) Update(ctx context.Context, id int64, name string, isActive bool, set authz.Set) (Role, error) {
	sections, areas := authz.EncodeGrants(r.registry, set)
	var role Role
	err := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, is_active = $3, sections = $4, areas = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, name, is_active, created_at, updated_at`,
		id, name, isActive, sections, areas).
		Scan(&role.ID, &role.Name, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, db.MapError(err)
	}
	role.Permissions = set
	return role, nil
}

// Delete removes a role. Users referencing it keep working through the
// LEFT JOIN in the identity lookup, resolving to an empty grant set.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
