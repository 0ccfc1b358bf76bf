package bank

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists bank accounts and transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service runs inside one posting
// transaction.
type TxRepository interface {
	GetBalanceForUpdate(ctx context.Context, accountID int64) (float64, error)
	SetBalance(ctx context.Context, accountID int64, balance float64) error
	InsertTransaction(ctx context.Context, t Transaction) (int64, error)
	SumTransactions(ctx context.Context, accountID int64) (float64, error)
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

// ListAccounts returns all accounts ordered by name.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, number, balance, created_at, updated_at
		FROM bank_accounts ORDER BY name, id`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Number, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAccountIDs returns every account id, for the reconciliation job.
func (r *Repository) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM bank_accounts ORDER BY id`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateAccount inserts an account with a zero opening balance.
func (r *Repository) CreateAccount(ctx context.Context, input AccountInput) (Account, error) {
	a := Account{Name: input.Name, Number: input.Number}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bank_accounts (name, number, balance, created_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		RETURNING id, balance, created_at, updated_at`,
		input.Name, input.Number).
		Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, db.MapError(err)
	}
	return a, nil
}

// UpdateAccount rewrites name and number. The balance is not editable;
// it only moves through postings and reconciliation.
func (r *Repository) UpdateAccount(ctx context.Context, id int64, input AccountInput) (Account, error) {
	a := Account{ID: id, Name: input.Name, Number: input.Number}
	err := r.pool.QueryRow(ctx, `
		UPDATE bank_accounts SET name = $2, number = $3, updated_at = now()
		WHERE id = $1
		RETURNING balance, created_at, updated_at`,
		id, input.Name, input.Number).
		Scan(&a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, db.MapError(err)
	}
	return a, nil
}

// DeleteAccount removes an account with its transactions.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM bank_transactions WHERE account_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id)
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

// ListTransactions returns postings, newest first; accountID 0 means all.
func (r *Repository) ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.account_id, a.name, t.kind, t.amount, t.note, t.posted_at, t.balance_after
		FROM bank_transactions t JOIN bank_accounts a ON a.id = t.account_id
		WHERE ($1::bigint = 0 OR t.account_id = $1)
		  AND ($2::timestamptz IS NULL OR t.posted_at >= $2)
		  AND ($3::timestamptz IS NULL OR t.posted_at < $3)
		ORDER BY t.posted_at DESC, t.id DESC`,
		accountID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Account, &t.Kind, &t.Amount, &t.Note, &t.PostedAt, &t.Balance); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (t *txRepo) GetBalanceForUpdate(ctx context.Context, accountID int64) (float64, error) {
	var balance float64
	err := t.tx.QueryRow(ctx, `SELECT balance FROM bank_accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return balance, err
}

func (t *txRepo) SetBalance(ctx context.Context, accountID int64, balance float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE bank_accounts SET balance = $2, updated_at = now() WHERE id = $1`, accountID, balance)
	return err
}

func (t *txRepo) InsertTransaction(ctx context.Context, tr Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bank_transactions (account_id, kind, amount, note, posted_at, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		tr.AccountID, string(tr.Kind), tr.Amount, tr.Note, tr.PostedAt, tr.Balance).
		Scan(&id)
	return id, db.MapError(err)
}

// SumTransactions recomputes the balance from the full posting history.
func (t *txRepo) SumTransactions(ctx context.Context, accountID int64) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'deposit' THEN amount ELSE -amount END), 0)
		FROM bank_transactions WHERE account_id = $1`, accountID).
		Scan(&sum)
	return sum, err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
