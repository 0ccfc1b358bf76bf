package loans

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Loan, error)
	ListIDs(ctx context.Context) ([]int64, error)
	Create(ctx context.Context, input LoanInput) (Loan, error)
	Update(ctx context.Context, id int64, input LoanInput) (Loan, error)
	Delete(ctx context.Context, id int64) error
	ListInstallments(ctx context.Context, loanID int64) ([]Installment, error)
}

// Service coordinates loan operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns all loans.
func (s *Service) List(ctx context.Context) ([]Loan, error) {
	return s.repo.List(ctx)
}

// Create validates and records a loan.
func (s *Service) Create(ctx context.Context, input LoanInput) (Loan, error) {
	input, err := check(input)
	if err != nil {
		return Loan{}, err
	}
	return s.repo.Create(ctx, input)
}

// Update rewrites a loan.
func (s *Service) Update(ctx context.Context, id int64, input LoanInput) (Loan, error) {
	input, err := check(input)
	if err != nil {
		return Loan{}, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a loan.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ListInstallments returns repayments for one or all loans.
func (s *Service) ListInstallments(ctx context.Context, loanID int64) ([]Installment, error) {
	return s.repo.ListInstallments(ctx, loanID)
}

// PostInstallment records a repayment. The loan row is locked, paid is
// recomputed from the installment history plus the new amount, and the
// balance follows; a repayment can never push the balance below zero.
func (s *Service) PostInstallment(ctx context.Context, input InstallmentInput) (Installment, error) {
	if input.LoanID <= 0 {
		return Installment{}, fmt.Errorf("%w: loan required", httpx.ErrValidation)
	}
	if input.Amount <= 0 {
		return Installment{}, ErrInvalidAmount
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now().UTC()
	}
	result := Installment{LoanID: input.LoanID, Amount: input.Amount, PaidAt: input.PaidAt}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		loan, err := tx.GetLoanForUpdate(ctx, input.LoanID)
		if err != nil {
			return err
		}
		paidSoFar, err := tx.SumInstallments(ctx, input.LoanID)
		if err != nil {
			return err
		}
		newPaid := paidSoFar + input.Amount
		if newPaid > loan.Principal+1e-9 {
			return ErrOverpayment
		}
		balance := loan.Principal - newPaid
		if math.Abs(balance) < 1e-9 {
			balance = 0
		}
		result.Lender = loan.Lender
		result.Balance = balance
		id, err := tx.InsertInstallment(ctx, result)
		if err != nil {
			return err
		}
		result.ID = id
		return tx.SetPaid(ctx, input.LoanID, newPaid, balance)
	})
	if err != nil {
		return Installment{}, err
	}
	return result, nil
}

// Reconcile recomputes paid/balance for every loan from its installments.
// Nightly integrity backstop; drift is logged before being repaired.
func (s *Service) Reconcile(ctx context.Context) error {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			loan, err := tx.GetLoanForUpdate(ctx, id)
			if err != nil {
				return err
			}
			paid, err := tx.SumInstallments(ctx, id)
			if err != nil {
				return err
			}
			balance := loan.Principal - paid
			if math.Abs(loan.Paid-paid) < 1e-9 && math.Abs(loan.Balance-balance) < 1e-9 {
				return nil
			}
			s.logger.Warn("loan balance drift repaired",
				slog.Int64("loan_id", id),
				slog.Float64("stored_paid", loan.Paid),
				slog.Float64("computed_paid", paid))
			return tx.SetPaid(ctx, id, paid, balance)
		})
		if err != nil {
			return fmt.Errorf("reconcile loan %d: %w", id, err)
		}
	}
	return nil
}

func check(input LoanInput) (LoanInput, error) {
	input.Lender = strings.TrimSpace(input.Lender)
	if input.Lender == "" {
		return input, fmt.Errorf("%w: lender required", httpx.ErrValidation)
	}
	if input.Principal <= 0 {
		return input, fmt.Errorf("%w: principal must be positive", httpx.ErrValidation)
	}
	if input.Rate < 0 {
		return input, fmt.Errorf("%w: rate cannot be negative", httpx.ErrValidation)
	}
	if input.StartedAt.IsZero() {
		return input, fmt.Errorf("%w: start date required", httpx.ErrValidation)
	}
	if !input.DueAt.IsZero() && input.DueAt.Before(input.StartedAt) {
		return input, fmt.Errorf("%w: due date before start date", httpx.ErrValidation)
	}
	return input, nil
}
