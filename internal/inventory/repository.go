package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists items and stock levels in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service runs inside one stock
// transaction.
type TxRepository interface {
	GetQuantityForUpdate(ctx context.Context, itemID int64) (float64, error)
	SetQuantity(ctx context.Context, itemID int64, qty float64) error
	InsertMovement(ctx context.Context, itemID int64, delta, balance float64, reason string) error
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

// ListItems returns all items ordered by name.
func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, unit, selling_price, created_at, updated_at
		FROM items ORDER BY name, id`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.SellingPrice, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateItem inserts an item and seeds its stock row at zero.
func (r *Repository) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	it := Item{Name: input.Name, Category: input.Category, Unit: input.Unit, SellingPrice: input.SellingPrice}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO items (name, category, unit, selling_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			RETURNING id, created_at, updated_at`,
			input.Name, input.Category, input.Unit, input.SellingPrice).
			Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stocks (item_id, quantity, updated_at) VALUES ($1, 0, now())`, it.ID)
		return err
	})
	if err != nil {
		return Item{}, db.MapError(err)
	}
	return it, nil
}

// UpdateItem rewrites an item.
func (r *Repository) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	it := Item{ID: id, Name: input.Name, Category: input.Category, Unit: input.Unit, SellingPrice: input.SellingPrice}
	err := r.pool.QueryRow(ctx, `
		UPDATE items SET name = $2, category = $3, unit = $4, selling_price = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, input.Name, input.Category, input.Unit, input.SellingPrice).
		Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return Item{}, db.MapError(err)
	}
	return it, nil
}

// DeleteItem removes an item with its stock row and movements.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stock_movements WHERE item_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM stocks WHERE item_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
	return db.MapError(err)
}

// ListStocks returns current stock levels with item names.
func (r *Repository) ListStocks(ctx context.Context) ([]Stock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.item_id, i.name, s.quantity, s.updated_at
		FROM stocks s JOIN items i ON i.id = s.item_id
		ORDER BY i.name`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ItemID, &s.ItemName, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListMovements returns recorded stock changes, newest first.
func (r *Repository) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.item_id, i.name, m.delta, m.balance, m.reason, m.posted_at
		FROM stock_movements m JOIN items i ON i.id = m.item_id
		WHERE ($1::bigint = 0 OR m.item_id = $1)
		ORDER BY m.posted_at DESC, m.id DESC
		LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.ItemName, &m.Delta, &m.Balance, &m.Reason, &m.PostedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *txRepo) GetQuantityForUpdate(ctx context.Context, itemID int64) (float64, error) {
	var qty float64
	err := t.tx.QueryRow(ctx, `SELECT quantity FROM stocks WHERE item_id = $1 FOR UPDATE`, itemID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return qty, err
}

func (t *txRepo) SetQuantity(ctx context.Context, itemID int64, qty float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE stocks SET quantity = $2, updated_at = now() WHERE item_id = $1`, itemID, qty)
	return err
}

func (t *txRepo) InsertMovement(ctx context.Context, itemID int64, delta, balance float64, reason string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (item_id, delta, balance, reason, posted_at)
		VALUES ($1, $2, $3, $4, now())`, itemID, delta, balance, reason)
	return err
}
