package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists sales in PostgreSQL. Invoice creation and deletion
// run in one transaction together with the stock decrement/restore, so an
// invoice can never exist with its stock movement half applied.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service runs inside one invoice
// transaction.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertLine(ctx context.Context, line SaleItem) (int64, error)
	GetStockForUpdate(ctx context.Context, itemID int64) (float64, error)
	SetStock(ctx context.Context, itemID int64, qty float64) error
	DeleteSale(ctx context.Context, saleID int64) ([]SaleItem, error)
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

// List returns sales in an optional window, newest first, without lines.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.invoice_no, s.customer_id, COALESCE(c.name, ''), s.total, s.paid, s.balance, s.sold_at, s.created_at, s.updated_at
		FROM sales s LEFT JOIN contacts c ON c.id = s.customer_id
		WHERE ($1::timestamptz IS NULL OR s.sold_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.sold_at < $2)
		ORDER BY s.sold_at DESC, s.id DESC`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.InvoiceNo, &s.CustomerID, &s.Customer, &s.Total, &s.Paid, &s.Balance, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one sale with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.invoice_no, s.customer_id, COALESCE(c.name, ''), s.total, s.paid, s.balance, s.sold_at, s.created_at, s.updated_at
		FROM sales s LEFT JOIN contacts c ON c.id = s.customer_id
		WHERE s.id = $1`, id).
		Scan(&s.ID, &s.InvoiceNo, &s.CustomerID, &s.Customer, &s.Total, &s.Paid, &s.Balance, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Sale{}, db.MapError(err)
	}
	items, err := r.ListLines(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	s.Items = items
	return s, nil
}

// ListLines returns invoice lines; saleID 0 lists lines across invoices.
func (r *Repository) ListLines(ctx context.Context, saleID int64) ([]SaleItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.sale_id, l.item_id, COALESCE(i.name, ''), l.qty, l.price, l.total
		FROM sale_items l LEFT JOIN items i ON i.id = l.item_id
		WHERE ($1::bigint = 0 OR l.sale_id = $1)
		ORDER BY l.id`, saleID)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []SaleItem
	for rows.Next() {
		var l SaleItem
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ItemID, &l.Item, &l.Qty, &l.Price, &l.Total); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdatePayment rewrites the paid amount; balance stays derived.
func (r *Repository) UpdatePayment(ctx context.Context, id int64, paid float64) (Sale, error) {
	_, err := r.pool.Exec(ctx, `
		UPDATE sales SET paid = $2, balance = total - $2, updated_at = now() WHERE id = $1`, id, paid)
	if err != nil {
		return Sale{}, db.MapError(err)
	}
	return r.Get(ctx, id)
}

// MonthlyReport aggregates invoice totals per month.
func (r *Repository) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM sold_at)::int, EXTRACT(MONTH FROM sold_at)::int,
		       COALESCE(SUM(total), 0), COALESCE(SUM(paid), 0), COUNT(*)
		FROM sales
		WHERE ($1::timestamptz IS NULL OR sold_at >= $1)
		  AND ($2::timestamptz IS NULL OR sold_at < $2)
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
		if err := rows.Scan(&row.Year, &month, &row.Total, &row.Paid, &row.Count); err != nil {
			return nil, err
		}
		row.Month = time.Month(month)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales (invoice_no, customer_id, total, paid, balance, sold_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id`,
		sale.InvoiceNo, sale.CustomerID, sale.Total, sale.Paid, sale.Balance, sale.SoldAt).
		Scan(&id)
	return id, db.MapError(err)
}

func (t *txRepo) InsertLine(ctx context.Context, line SaleItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, item_id, qty, price, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		line.SaleID, line.ItemID, line.Qty, line.Price, line.Total).
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

// DeleteSale removes the invoice and returns its lines so the caller can
// restore stock in the same transaction.
func (t *txRepo) DeleteSale(ctx context.Context, saleID int64) ([]SaleItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, sale_id, item_id, qty, price, total FROM sale_items WHERE sale_id = $1`, saleID)
	if err != nil {
		return nil, db.MapError(err)
	}
	var lines []SaleItem
	for rows.Next() {
		var l SaleItem
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ItemID, &l.Qty, &l.Price, &l.Total); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID); err != nil {
		return nil, db.MapError(err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
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
