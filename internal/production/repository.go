package production

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists production runs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service runs inside one run
// transaction.
type TxRepository interface {
	InsertRun(ctx context.Context, run Production) (int64, error)
	InsertLine(ctx context.Context, line ProductionItem) (int64, error)
	GetStockForUpdate(ctx context.Context, itemID int64) (float64, error)
	SetStock(ctx context.Context, itemID int64, qty float64) error
	DeleteRun(ctx context.Context, runID int64) ([]ProductionItem, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// List returns production runs, newest first, without lines.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Production, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_no, made_at, notes, created_at, updated_at
		FROM productions
		WHERE ($1::timestamptz IS NULL OR made_at >= $1)
		  AND ($2::timestamptz IS NULL OR made_at < $2)
		ORDER BY made_at DESC, id DESC`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Production
	for rows.Next() {
		var p Production
		if err := rows.Scan(&p.ID, &p.RunNo, &p.MadeAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListLines returns yield lines; runID 0 lists lines across runs.
func (r *Repository) ListLines(ctx context.Context, runID int64) ([]ProductionItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.production_id, l.item_id, COALESCE(i.name, ''), l.qty
		FROM production_items l LEFT JOIN items i ON i.id = l.item_id
		WHERE ($1::bigint = 0 OR l.production_id = $1)
		ORDER BY l.id`, runID)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []ProductionItem
	for rows.Next() {
		var l ProductionItem
		if err := rows.Scan(&l.ID, &l.ProductionID, &l.ItemID, &l.Item, &l.Qty); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MonthlyReport aggregates produced quantities per month.
func (r *Repository) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM p.made_at)::int, EXTRACT(MONTH FROM p.made_at)::int,
		       COALESCE(SUM(l.qty), 0), COUNT(DISTINCT p.id)
		FROM productions p LEFT JOIN production_items l ON l.production_id = p.id
		WHERE ($1::timestamptz IS NULL OR p.made_at >= $1)
		  AND ($2::timestamptz IS NULL OR p.made_at < $2)
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
		if err := rows.Scan(&row.Year, &month, &row.Qty, &row.Runs); err != nil {
			return nil, err
		}
		row.Month = time.Month(month)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *txRepo) InsertRun(ctx context.Context, run Production) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO productions (run_no, made_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id`,
		run.RunNo, run.MadeAt, run.Notes).
		Scan(&id)
	return id, db.MapError(err)
}

func (t *txRepo) InsertLine(ctx context.Context, line ProductionItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO production_items (production_id, item_id, qty)
		VALUES ($1, $2, $3)
		RETURNING id`,
		line.ProductionID, line.ItemID, line.Qty).
		Scan(&id)
	return id, db.MapError(err)
}

func (t *txRepo) GetStockForUpdate(ctx context.Context, itemID int64) (float64, error) {
	var qty float64
	err := t.tx.QueryRow(ctx, `SELECT quantity FROM stocks WHERE item_id = $1 FOR UPDATE`, itemID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return qty, err
}

func (t *txRepo) SetStock(ctx context.Context, itemID int64, qty float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE stocks SET quantity = $2, updated_at = now() WHERE item_id = $1`, itemID, qty)
	return err
}

// DeleteRun removes the run and returns its lines so the caller can back
// the yielded stock out in the same transaction.
func (t *txRepo) DeleteRun(ctx context.Context, runID int64) ([]ProductionItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, production_id, item_id, qty FROM production_items WHERE production_id = $1`, runID)
	if err != nil {
		return nil, db.MapError(err)
	}
	var lines []ProductionItem
	for rows.Next() {
		var l ProductionItem
		if err := rows.Scan(&l.ID, &l.ProductionID, &l.ItemID, &l.Qty); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM production_items WHERE production_id = $1`, runID); err != nil {
		return nil, db.MapError(err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM productions WHERE id = $1`, runID)
	if err != nil {
		return nil, db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.ErrNotFound
	}
	return lines, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
