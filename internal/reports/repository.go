package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
)

// Repository reads cross-module aggregates. Read-only; every table it
// touches is owned by another module.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MonthlyProfit joins monthly sales totals against monthly expense totals.
// A month appears when either side has activity.
func (r *Repository) MonthlyProfit(ctx context.Context, from, to time.Time) ([]ProfitRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(s.year, e.year), COALESCE(s.month, e.month),
		       COALESCE(s.total, 0), COALESCE(e.total, 0)
		FROM (
			SELECT EXTRACT(YEAR FROM sold_at)::int AS year,
			       EXTRACT(MONTH FROM sold_at)::int AS month,
			       SUM(total) AS total
			FROM sales
			WHERE ($1::timestamptz IS NULL OR sold_at >= $1)
			  AND ($2::timestamptz IS NULL OR sold_at < $2)
			GROUP BY 1, 2
		) s
		FULL OUTER JOIN (
			SELECT EXTRACT(YEAR FROM spent_at)::int AS year,
			       EXTRACT(MONTH FROM spent_at)::int AS month,
			       SUM(amount) AS total
			FROM expenses
			WHERE ($1::timestamptz IS NULL OR spent_at >= $1)
			  AND ($2::timestamptz IS NULL OR spent_at < $2)
			GROUP BY 1, 2
		) e ON s.year = e.year AND s.month = e.month
		ORDER BY 1, 2`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var out []ProfitRow
	for rows.Next() {
		var row ProfitRow
		if err := rows.Scan(&row.Year, &row.Month, &row.Sales, &row.Expenses); err != nil {
			return nil, err
		}
		row.Profit = row.Sales - row.Expenses
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) MonthSales(ctx context.Context, since time.Time) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(total), 0) FROM sales WHERE sold_at >= $1`, since)
}

func (r *Repository) MonthExpenses(ctx context.Context, since time.Time) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE spent_at >= $1`, since)
}

func (r *Repository) BankBalance(ctx context.Context) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(balance), 0) FROM bank_accounts`)
}

func (r *Repository) LoansOutstanding(ctx context.Context) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(balance), 0) FROM loans`)
}

func (r *Repository) ContactBalance(ctx context.Context, kind string) (float64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(balance), 0) FROM contacts WHERE kind = $1`, kind)
}

func (r *Repository) StockSnapshot(ctx context.Context) (count int64, quantity float64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM stocks`,
	).Scan(&count, &quantity)
	if err != nil {
		return 0, 0, db.MapError(err)
	}
	return count, quantity, nil
}

func (r *Repository) sum(ctx context.Context, query string, args ...any) (float64, error) {
	var v float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&v); err != nil {
		return 0, db.MapError(err)
	}
	return v, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
