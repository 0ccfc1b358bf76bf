package company

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
)

// Repository persists the company profile and user self-service edits.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the company profile. A missing row yields a zero Company so
// the setup screen can start from a blank form.
func (r *Repository) Get(ctx context.Context) (Company, error) {
	var c Company
	var fiscal int
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, email, currency, fiscal_year_start, updated_at
		FROM company ORDER BY id LIMIT 1`).
		Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Currency, &fiscal, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, nil
	}
	if err != nil {
		return Company{}, db.MapError(err)
	}
	c.FiscalYearStart = month(fiscal)
	return c, nil
}

// Upsert writes the single company row, creating it on first save.
func (r *Repository) Upsert(ctx context.Context, input Input) (Company, error) {
	c := Company{
		Name: input.Name, Address: input.Address, Phone: input.Phone,
		Email: input.Email, Currency: input.Currency, FiscalYearStart: input.FiscalYearStart,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO company (id, name, address, phone, email, currency, fiscal_year_start, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone,
			email = EXCLUDED.email, currency = EXCLUDED.currency,
			fiscal_year_start = EXCLUDED.fiscal_year_start, updated_at = now()
		RETURNING id, updated_at`,
		input.Name, input.Address, input.Phone, input.Email, input.Currency, int(input.FiscalYearStart)).
		Scan(&c.ID, &c.UpdatedAt)
	if err != nil {
		return Company{}, db.MapError(err)
	}
	return c, nil
}

// GetProfile returns the self-service view of one account.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, userID).
		Scan(&p.ID, &p.Name, &p.Email)
	if err != nil {
		return Profile{}, db.MapError(err)
	}
	return p, nil
}

// UpdateProfile rewrites name/email and optionally the password hash.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, name, email, passwordHash string) (Profile, error) {
	p := Profile{ID: userID, Name: name, Email: email}
	var err error
	if passwordHash == "" {
		_, err = r.pool.Exec(ctx, `
			UPDATE users SET name = $2, email = $3, updated_at = now() WHERE id = $1`,
			userID, name, email)
	} else {
		_, err = r.pool.Exec(ctx, `
			UPDATE users SET name = $2, email = $3, password_hash = $4, updated_at = now() WHERE id = $1`,
			userID, name, email, passwordHash)
	}
	if err != nil {
		return Profile{}, db.MapError(err)
	}
	return p, nil
}

func month(m int) time.Month {
	if m < 1 || m > 12 {
		return time.January
	}
	return time.Month(m)
}
