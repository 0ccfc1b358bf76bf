package contacts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists all four contact ledgers in one table keyed by kind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all contacts of one kind ordered by name.
func (r *Repository) List(ctx context.Context, kind Kind) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, name, phone, email, address, balance, created_at, updated_at
		FROM contacts WHERE kind = $1 ORDER BY name, id`, string(kind))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Kind, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a contact.
func (r *Repository) Create(ctx context.Context, kind Kind, input Input) (Contact, error) {
	c := Contact{Kind: kind, Name: input.Name, Phone: input.Phone, Email: input.Email, Address: input.Address, Balance: input.Balance}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (kind, name, phone, email, address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`,
		string(kind), input.Name, input.Phone, input.Email, input.Address, input.Balance).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contact{}, db.MapError(err)
	}
	return c, nil
}

// Update rewrites a contact; the kind predicate keeps an id from one ledger
// from being edited through another ledger's endpoint.
func (r *Repository) Update(ctx context.Context, kind Kind, id int64, input Input) (Contact, error) {
	c := Contact{ID: id, Kind: kind, Name: input.Name, Phone: input.Phone, Email: input.Email, Address: input.Address, Balance: input.Balance}
	err := r.pool.QueryRow(ctx, `
		UPDATE contacts SET name = $3, phone = $4, email = $5, address = $6, balance = $7, updated_at = now()
		WHERE id = $1 AND kind = $2
		RETURNING created_at, updated_at`,
		id, string(kind), input.Name, input.Phone, input.Email, input.Address, input.Balance).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contact{}, db.MapError(err)
	}
	return c, nil
}

// Delete removes a contact from one ledger.
func (r *Repository) Delete(ctx context.Context, kind Kind, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND kind = $2`, id, string(kind))
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
