package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	MonthlyProfit(ctx context.Context, from, to time.Time) ([]ProfitRow, error)
	MonthSales(ctx context.Context, since time.Time) (float64, error)
	MonthExpenses(ctx context.Context, since time.Time) (float64, error)
	BankBalance(ctx context.Context) (float64, error)
	LoansOutstanding(ctx context.Context) (float64, error)
	ContactBalance(ctx context.Context, kind string) (float64, error)
	StockSnapshot(ctx context.Context) (int64, float64, error)
}

// Service assembles the cross-module reports.
type Service struct {
	repo    RepositoryPort
	printer *message.Printer
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo:    repo,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Format renders an amount with grouping separators for display.
func (s *Service) Format(amount float64) string {
	return s.printer.Sprintf("%.2f", amount)
}

// Profit returns the monthly profit rows inside the window.
func (s *Service) Profit(ctx context.Context, from, to time.Time) ([]ProfitRow, error) {
	return s.repo.MonthlyProfit(ctx, from, to)
}

// Snapshot loads the dashboard figures. The independent aggregates are
// fetched concurrently; any failure cancels the rest.
func (s *Service) Snapshot(ctx context.Context) (Dashboard, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.repo.MonthSales(ctx, monthStart)
		d.MonthSales = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.MonthExpenses(ctx, monthStart)
		d.MonthExpenses = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.BankBalance(ctx)
		d.BankBalance = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.LoansOutstanding(ctx)
		d.LoansOutstanding = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.ContactBalance(ctx, "debtor")
		d.Receivables = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.ContactBalance(ctx, "creditor")
		d.Payables = v
		return err
	})
	g.Go(func() error {
		count, qty, err := s.repo.StockSnapshot(ctx)
		d.ItemCount, d.StockQuantity = count, qty
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
