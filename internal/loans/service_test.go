package loans

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	loans        map[int64]Loan
	installments []Installment
	nextID       int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{loans: make(map[int64]Loan)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	loansCopy := make(map[int64]Loan, len(r.loans))
	for k, v := range r.loans {
		loansCopy[k] = v
	}
	instCopy := append([]Installment(nil), r.installments...)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.loans, r.installments = loansCopy, instCopy
		return err
	}
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Loan, error) {
	var out []Loan
	for _, l := range r.loans {
		out = append(out, l)
	}
	return out, nil
}

func (r *memoryRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var out []int64
	for id := range r.loans {
		out = append(out, id)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, input LoanInput) (Loan, error) {
	r.nextID++
	l := Loan{
		ID: r.nextID, Lender: input.Lender, Principal: input.Principal,
		Rate: input.Rate, Balance: input.Principal,
		StartedAt: input.StartedAt, DueAt: input.DueAt,
	}
	r.loans[l.ID] = l
	return l, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, input LoanInput) (Loan, error) {
	l, ok := r.loans[id]
	if !ok {
		return Loan{}, httpx.ErrNotFound
	}
	l.Lender, l.Rate, l.StartedAt, l.DueAt = input.Lender, input.Rate, input.StartedAt, input.DueAt
	l.Principal = input.Principal
	l.Balance = input.Principal - l.Paid
	r.loans[id] = l
	return l, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.loans[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.loans, id)
	return nil
}

func (r *memoryRepo) ListInstallments(ctx context.Context, loanID int64) ([]Installment, error) {
	var out []Installment
	for _, i := range r.installments {
		if loanID == 0 || i.LoanID == loanID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (t *memoryTx) GetLoanForUpdate(ctx context.Context, loanID int64) (Loan, error) {
	l, ok := t.repo.loans[loanID]
	if !ok {
		return Loan{}, httpx.ErrNotFound
	}
	return l, nil
}

func (t *memoryTx) SetPaid(ctx context.Context, loanID int64, paid, balance float64) error {
	l := t.repo.loans[loanID]
	l.Paid, l.Balance = paid, balance
	t.repo.loans[loanID] = l
	return nil
}

func (t *memoryTx) InsertInstallment(ctx context.Context, inst Installment) (int64, error) {
	t.repo.nextID++
	inst.ID = t.repo.nextID
	t.repo.installments = append(t.repo.installments, inst)
	return inst.ID, nil
}

func (t *memoryTx) SumInstallments(ctx context.Context, loanID int64) (float64, error) {
	var sum float64
	for _, i := range t.repo.installments {
		if i.LoanID == loanID {
			sum += i.Amount
		}
	}
	return sum, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *memoryRepo, Loan) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, testLogger())
	loan, err := svc.Create(context.Background(), LoanInput{
		Lender: "First Street Bank", Principal: 1000, Rate: 7.5,
		StartedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return svc, repo, loan
}

func TestPostInstallmentTracksBalance(t *testing.T) {
	svc, repo, loan := newTestService(t)
	ctx := context.Background()

	inst, err := svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 400})
	require.NoError(t, err)
	require.InDelta(t, 600.0, inst.Balance, 0.0001)
	require.Equal(t, "First Street Bank", inst.Lender)

	inst, err = svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 600})
	require.NoError(t, err)
	require.InDelta(t, 0.0, inst.Balance, 0.0001)
	require.InDelta(t, 1000.0, repo.loans[loan.ID].Paid, 0.0001)
	require.InDelta(t, 0.0, repo.loans[loan.ID].Balance, 0.0001)
}

func TestPostInstallmentRejectsOverpayment(t *testing.T) {
	svc, repo, loan := newTestService(t)
	ctx := context.Background()

	_, err := svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 900})
	require.NoError(t, err)

	_, err = svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 100.01})
	require.ErrorIs(t, err, ErrOverpayment)
	require.InDelta(t, 900.0, repo.loans[loan.ID].Paid, 0.0001)
	require.Len(t, repo.installments, 1)
}

func TestPostInstallmentValidation(t *testing.T) {
	svc, _, loan := newTestService(t)
	ctx := context.Background()

	_, err := svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.PostInstallment(ctx, InstallmentInput{LoanID: 404, Amount: 50})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestLoanValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	started := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, LoanInput{Lender: "  ", Principal: 100, StartedAt: started})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, LoanInput{Lender: "Bank", Principal: 0, StartedAt: started})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, LoanInput{
		Lender: "Bank", Principal: 100, StartedAt: started,
		DueAt: started.AddDate(0, -1, 0),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestReconcileRepairsDrift(t *testing.T) {
	svc, repo, loan := newTestService(t)
	ctx := context.Background()

	_, err := svc.PostInstallment(ctx, InstallmentInput{LoanID: loan.ID, Amount: 250})
	require.NoError(t, err)

	// Simulate a write that bypassed PostInstallment.
	l := repo.loans[loan.ID]
	l.Paid, l.Balance = 999, 1
	repo.loans[loan.ID] = l

	require.NoError(t, svc.Reconcile(ctx))
	require.InDelta(t, 250.0, repo.loans[loan.ID].Paid, 0.0001)
	require.InDelta(t, 750.0, repo.loans[loan.ID].Balance, 0.0001)
}
