package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists user accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role_id, COALESCE(r.name, ''), u.is_active, u.created_at, u.updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns all accounts with their role names.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		ORDER BY u.id`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get returns one account.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, id))
	if err != nil {
		return User{}, db.MapError(err)
	}
	return u, nil
}

// Create inserts an account. The email unique constraint maps to a
// duplicate error.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.RoleID, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, db.MapError(err)
	}
	return u, nil
}

// Update rewrites an account.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, email = $3, password_hash = $4, role_id = $5, is_active = $6, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, u.IsActive).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, db.MapError(err)
	}
	return u, nil
}

// Delete removes an account and its open sessions.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
	return db.MapError(err)
}
