package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL. It also serves as the
// identity provider's user store, joining users to their role grants.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, password_hash, role_id, is_active, created_at, updated_at
FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.RoleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserWithGrants loads the user row joined with its role grant strings.
func (r *PGRepository) FindUserWithGrants(ctx context.Context, id int64) (identity.UserRecord, error) {
	var record identity.UserRecord
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.name, u.email, u.is_active,
       COALESCE(ro.id, 0), COALESCE(ro.name, ''), COALESCE(ro.is_active, FALSE),
       COALESCE(ro.sections, ''), COALESCE(ro.areas, '')
FROM users u
LEFT JOIN roles ro ON ro.id = u.role_id
WHERE u.id = $1`, id).
		Scan(&record.ID, &record.Name, &record.Email, &record.Active,
			&record.RoleID, &record.RoleName, &record.RoleActive,
			&record.Sections, &record.Areas)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.UserRecord{}, identity.ErrUserNotFound
		}
		return identity.UserRecord{}, err
	}
	return record, nil
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`, id, userID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
var _ identity.UserStore = (*PGRepository)(nil)
