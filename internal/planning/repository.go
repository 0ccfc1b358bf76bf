package planning

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists targets and reads the yearly aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const targetColumns = `id, year, metric, amount, notes, created_at, updated_at`

func (r *Repository) ListTargets(ctx context.Context) ([]Target, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY year DESC, metric`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var out []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.Year, &t.Metric, &t.Amount, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CreateTarget(ctx context.Context, input TargetInput) (Target, error) {
	t := Target{Year: input.Year, Metric: input.Metric, Amount: input.Amount, Notes: input.Notes}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO targets (year, metric, amount, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		input.Year, input.Metric, input.Amount, input.Notes,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Target{}, db.MapError(err)
	}
	return t, nil
}

func (r *Repository) UpdateTarget(ctx context.Context, id int64, input TargetInput) (Target, error) {
	t := Target{ID: id, Year: input.Year, Metric: input.Metric, Amount: input.Amount, Notes: input.Notes}
	err := r.pool.QueryRow(ctx, `
		UPDATE targets
		SET year = $2, metric = $3, amount = $4, notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, input.Year, input.Metric, input.Amount, input.Notes,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Target{}, db.MapError(err)
	}
	return t, nil
}

func (r *Repository) DeleteTarget(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// MonthlySummary aggregates sales totals and expense amounts for one calendar
// year. Months with no activity on either side are absent.
func (r *Repository) MonthlySummary(ctx context.Context, year int) ([]MonthSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(s.month, e.month) AS month,
		       COALESCE(s.total, 0), COALESCE(e.total, 0)
		FROM (
			SELECT EXTRACT(MONTH FROM sold_at)::int AS month, SUM(total) AS total
			FROM sales WHERE EXTRACT(YEAR FROM sold_at) = $1 GROUP BY 1
		) s
		FULL OUTER JOIN (
			SELECT EXTRACT(MONTH FROM spent_at)::int AS month, SUM(amount) AS total
			FROM expenses WHERE EXTRACT(YEAR FROM spent_at) = $1 GROUP BY 1
		) e ON s.month = e.month
		ORDER BY 1`, year)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var out []MonthSummary
	for rows.Next() {
		var month int
		var m MonthSummary
		if err := rows.Scan(&month, &m.Sales, &m.Expenses); err != nil {
			return nil, err
		}
		m.Month = time.Month(month)
		out = append(out, m)
	}
	return out, rows.Err()
}
