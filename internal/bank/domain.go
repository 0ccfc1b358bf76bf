package bank

import (
	"errors"
	"time"
)

// Account is one bank account. Balance is derived from the transaction
// history; every change happens inside a transaction that locks the account
// row first.
type Account struct {
	ID        int64
	Name      string
	Number    string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountInput carries the editable account fields.
type AccountInput struct {
	Name   string
	Number string
}

// TransactionKind is the direction of a bank transaction.
type TransactionKind string

const (
	KindDeposit  TransactionKind = "deposit"
	KindWithdraw TransactionKind = "withdraw"
)

// Transaction is one posted deposit or withdrawal.
type Transaction struct {
	ID        int64
	AccountID int64
	Account   string
	Kind      TransactionKind
	Amount    float64
	Note      string
	PostedAt  time.Time
	Balance   float64
}

// TransactionInput carries a requested deposit or withdrawal.
type TransactionInput struct {
	AccountID int64
	Kind      TransactionKind
	Amount    float64
	Note      string
	PostedAt  time.Time
}

var (
	// ErrOverdraw rejects withdrawals beyond the account balance.
	ErrOverdraw = errors.New("bank: withdrawal exceeds balance")
	// ErrInvalidAmount rejects non-positive amounts.
	ErrInvalidAmount = errors.New("bank: amount must be positive")
	// ErrUnknownKind rejects transaction kinds other than deposit/withdraw.
	ErrUnknownKind = errors.New("bank: unknown transaction kind")
)
