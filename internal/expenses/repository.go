package expenses

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists expenses in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns expenses in an optional date window, newest first.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, amount, spent_at, description, created_at, updated_at
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR spent_at >= $1)
		  AND ($2::timestamptz IS NULL OR spent_at < $2)
		ORDER BY spent_at DESC, id DESC`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount, &e.SpentAt, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts an expense.
func (r *Repository) Create(ctx context.Context, input Input) (Expense, error) {
	e := Expense{Title: input.Title, Amount: input.Amount, SpentAt: input.SpentAt, Description: input.Description}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (title, amount, spent_at, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`,
		input.Title, input.Amount, input.SpentAt, input.Description).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Expense{}, db.MapError(err)
	}
	return e, nil
}

// Update rewrites an expense.
func (r *Repository) Update(ctx context.Context, id int64, input Input) (Expense, error) {
	e := Expense{ID: id, Title: input.Title, Amount: input.Amount, SpentAt: input.SpentAt, Description: input.Description}
	err := r.pool.QueryRow(ctx, `
		UPDATE expenses SET title = $2, amount = $3, spent_at = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, input.Title, input.Amount, input.SpentAt, input.Description).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Expense{}, db.MapError(err)
	}
	return e, nil
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// MonthlyReport aggregates totals per month within the window.
func (r *Repository) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM spent_at)::int, EXTRACT(MONTH FROM spent_at)::int,
		       COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR spent_at >= $1)
		  AND ($2::timestamptz IS NULL OR spent_at < $2)
		GROUP BY 1, 2
		ORDER BY 1, 2`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var row ReportRow
		var month int
		if err := rows.Scan(&row.Year, &month, &row.Total, &row.Count); err != nil {
			return nil, err
		}
		row.Month = time.Month(month)
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
