package bank

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
	ListAccounts(ctx context.Context) ([]Account, error)
	ListAccountIDs(ctx context.Context) ([]int64, error)
	CreateAccount(ctx context.Context, input AccountInput) (Account, error)
	UpdateAccount(ctx context.Context, id int64, input AccountInput) (Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error)
}

// Service coordinates bank operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// CreateAccount validates and inserts an account.
func (s *Service) CreateAccount(ctx context.Context, input AccountInput) (Account, error) {
	input, err := checkAccount(input)
	if err != nil {
		return Account{}, err
	}
	return s.repo.CreateAccount(ctx, input)
}

// UpdateAccount rewrites the account details.
func (s *Service) UpdateAccount(ctx context.Context, id int64, input AccountInput) (Account, error) {
	input, err := checkAccount(input)
	if err != nil {
		return Account{}, err
	}
	return s.repo.UpdateAccount(ctx, id, input)
}

// DeleteAccount removes an account.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.repo.DeleteAccount(ctx, id)
}

// ListTransactions returns postings for one or all accounts.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, accountID, from, to)
}

// Post applies a deposit or withdrawal. The account row is locked before
// the balance check, so two concurrent withdrawals cannot both pass it.
func (s *Service) Post(ctx context.Context, input TransactionInput) (Transaction, error) {
	if input.AccountID <= 0 {
		return Transaction{}, fmt.Errorf("%w: account required", httpx.ErrValidation)
	}
	if input.Amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if input.Kind != KindDeposit && input.Kind != KindWithdraw {
		return Transaction{}, ErrUnknownKind
	}
	if input.PostedAt.IsZero() {
		input.PostedAt = time.Now().UTC()
	}
	result := Transaction{
		AccountID: input.AccountID,
		Kind:      input.Kind,
		Amount:    input.Amount,
		Note:      strings.TrimSpace(input.Note),
		PostedAt:  input.PostedAt,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}
		switch input.Kind {
		case KindDeposit:
			balance += input.Amount
		case KindWithdraw:
			if balance-input.Amount < -1e-9 {
				return ErrOverdraw
			}
			balance -= input.Amount
		}
		result.Balance = balance
		id, err := tx.InsertTransaction(ctx, result)
		if err != nil {
			return err
		}
		result.ID = id
		return tx.SetBalance(ctx, input.AccountID, balance)
	})
	if err != nil {
		return Transaction{}, err
	}
	return result, nil
}

// Reconcile recomputes every account balance from its posting history.
// Run nightly as an integrity backstop; a drift means a write bypassed
// Post and is logged before being repaired.
func (s *Service) Reconcile(ctx context.Context) error {
	ids, err := s.repo.ListAccountIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			stored, err := tx.GetBalanceForUpdate(ctx, id)
			if err != nil {
				return err
			}
			computed, err := tx.SumTransactions(ctx, id)
			if err != nil {
				return err
			}
			if math.Abs(stored-computed) < 1e-9 {
				return nil
			}
			s.logger.Warn("bank balance drift repaired",
				slog.Int64("account_id", id),
				slog.Float64("stored", stored),
				slog.Float64("computed", computed))
			return tx.SetBalance(ctx, id, computed)
		})
		if err != nil {
			return fmt.Errorf("reconcile account %d: %w", id, err)
		}
	}
	return nil
}

func checkAccount(input AccountInput) (AccountInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Number = strings.TrimSpace(input.Number)
	if input.Name == "" {
		return input, fmt.Errorf("%w: account name required", httpx.ErrValidation)
	}
	return input, nil
}
