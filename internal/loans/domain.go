package loans

import (
	"errors"
	"time"
)

// Loan is borrowed money being paid down through installments. Paid and
// Balance are derived from the installment history inside the posting
// transaction, never taken from the client.
type Loan struct {
	ID        int64
	Lender    string
	Principal float64
	Rate      float64
	Paid      float64
	Balance   float64
	StartedAt time.Time
	DueAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoanInput carries the fields accepted when recording a loan.
type LoanInput struct {
	Lender    string
	Principal float64
	Rate      float64
	StartedAt time.Time
	DueAt     time.Time
}

// Installment is one repayment against a loan.
type Installment struct {
	ID      int64
	LoanID  int64
	Lender  string
	Amount  float64
	PaidAt  time.Time
	Balance float64
}

// InstallmentInput carries a requested repayment.
type InstallmentInput struct {
	LoanID int64
	Amount float64
	PaidAt time.Time
}

var (
	// ErrOverpayment rejects installments beyond the remaining balance.
	ErrOverpayment = errors.New("loans: installment exceeds remaining balance")
	// ErrInvalidAmount rejects non-positive installment amounts.
	ErrInvalidAmount = errors.New("loans: amount must be positive")
)
