package loans

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists loans and installments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service runs inside one
// installment transaction.
type TxRepository interface {
	GetLoanForUpdate(ctx context.Context, loanID int64) (Loan, error)
	SetPaid(ctx context.Context, loanID int64, paid, balance float64) error
	InsertInstallment(ctx context.Context, inst Installment) (int64, error)
	SumInstallments(ctx context.Context, loanID int64) (float64, error)
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

const loanColumns = `id, lender, principal, rate, paid, balance, started_at, due_at, created_at, updated_at`

// List returns all loans ordered by start date.
func (r *Repository) List(ctx context.Context) ([]Loan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.ID, &l.Lender, &l.Principal, &l.Rate, &l.Paid, &l.Balance, &l.StartedAt, &l.DueAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListIDs returns every loan id, for the reconciliation job.
func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM loans ORDER BY id`)
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

// Create records a loan with nothing paid yet.
func (r *Repository) Create(ctx context.Context, input LoanInput) (Loan, error) {
	l := Loan{
		Lender: input.Lender, Principal: input.Principal, Rate: input.Rate,
		Balance: input.Principal, StartedAt: input.StartedAt, DueAt: input.DueAt,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO loans (lender, principal, rate, paid, balance, started_at, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $2, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`,
		input.Lender, input.Principal, input.Rate, input.StartedAt, input.DueAt).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Loan{}, db.MapError(err)
	}
	return l, nil
}

// Update rewrites the descriptive loan fields. Principal edits are rejected
// once installments exist; paid/balance only move through postings.
func (r *Repository) Update(ctx context.Context, id int64, input LoanInput) (Loan, error) {
	var l Loan
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM loan_installments WHERE loan_id = $1`, id).Scan(&count); err != nil {
			return err
		}
		var current float64
		if err := tx.QueryRow(ctx, `SELECT principal FROM loans WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return err
		}
		if count > 0 && current != input.Principal {
			return httpx.ErrValidation
		}
		return tx.QueryRow(ctx, `
			UPDATE loans SET lender = $2, principal = $3, rate = $4, balance = $3 - paid,
			                 started_at = $5, due_at = $6, updated_at = now()
			WHERE id = $1
			RETURNING `+loanColumns,
			id, input.Lender, input.Principal, input.Rate, input.StartedAt, input.DueAt).
			Scan(&l.ID, &l.Lender, &l.Principal, &l.Rate, &l.Paid, &l.Balance, &l.StartedAt, &l.DueAt, &l.CreatedAt, &l.UpdatedAt)
	})
	if err != nil {
		return Loan{}, db.MapError(err)
	}
	return l, nil
}

// Delete removes a loan with its installments.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM loan_installments WHERE loan_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
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

// ListInstallments returns repayments, newest first; loanID 0 means all.
func (r *Repository) ListInstallments(ctx context.Context, loanID int64) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.loan_id, l.lender, i.amount, i.paid_at, i.balance_after
		FROM loan_installments i JOIN loans l ON l.id = i.loan_id
		WHERE ($1::bigint = 0 OR i.loan_id = $1)
		ORDER BY i.paid_at DESC, i.id DESC`, loanID)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		var inst Installment
		if err := rows.Scan(&inst.ID, &inst.LoanID, &inst.Lender, &inst.Amount, &inst.PaidAt, &inst.Balance); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (t *txRepo) GetLoanForUpdate(ctx context.Context, loanID int64) (Loan, error) {
	var l Loan
	err := t.tx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, loanID).
		Scan(&l.ID, &l.Lender, &l.Principal, &l.Rate, &l.Paid, &l.Balance, &l.StartedAt, &l.DueAt, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, httpx.ErrNotFound
	}
	return l, err
}

func (t *txRepo) SetPaid(ctx context.Context, loanID int64, paid, balance float64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE loans SET paid = $2, balance = $3, updated_at = now() WHERE id = $1`, loanID, paid, balance)
	return err
}

func (t *txRepo) InsertInstallment(ctx context.Context, inst Installment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO loan_installments (loan_id, amount, paid_at, balance_after)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		inst.LoanID, inst.Amount, inst.PaidAt, inst.Balance).
		Scan(&id)
	return id, db.MapError(err)
}

// SumInstallments recomputes the paid amount from the repayment history.
func (t *txRepo) SumInstallments(ctx context.Context, loanID int64) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM loan_installments WHERE loan_id = $1`, loanID).
		Scan(&sum)
	return sum, err
}
