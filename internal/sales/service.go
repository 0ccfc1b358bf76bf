package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, from, to time.Time) ([]Sale, error)
	Get(ctx context.Context, id int64) (Sale, error)
	ListLines(ctx context.Context, saleID int64) ([]SaleItem, error)
	UpdatePayment(ctx context.Context, id int64, paid float64) (Sale, error)
	MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error)
}

// Service coordinates invoicing.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns sales in an optional window.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Sale, error) {
	return s.repo.List(ctx, from, to)
}

// Get returns one sale with lines.
func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}

// ListLines returns invoice lines across all invoices.
func (s *Service) ListLines(ctx context.Context) ([]SaleItem, error) {
	return s.repo.ListLines(ctx, 0)
}

// Create posts an invoice. Line totals, the invoice total and the balance
// are computed here; each line decrements its item's stock under a row
// lock, so an oversell loses the race instead of going negative.
func (s *Service) Create(ctx context.Context, input Input) (Sale, error) {
	input.InvoiceNo = strings.TrimSpace(input.InvoiceNo)
	if input.InvoiceNo == "" {
		return Sale{}, fmt.Errorf("%w: invoice number required", httpx.ErrValidation)
	}
	if input.SoldAt.IsZero() {
		return Sale{}, fmt.Errorf("%w: sale date required", httpx.ErrValidation)
	}
	if len(input.Items) == 0 {
		return Sale{}, ErrNoLines
	}
	var total float64
	lines := make([]SaleItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.ItemID <= 0 || line.Qty <= 0 || line.Price < 0 {
			return Sale{}, fmt.Errorf("%w: invalid invoice line", httpx.ErrValidation)
		}
		lineTotal := line.Qty * line.Price
		total += lineTotal
		lines = append(lines, SaleItem{ItemID: line.ItemID, Qty: line.Qty, Price: line.Price, Total: lineTotal})
	}
	if input.Paid < 0 {
		return Sale{}, fmt.Errorf("%w: paid cannot be negative", httpx.ErrValidation)
	}
	if input.Paid > total {
		return Sale{}, ErrOverpaid
	}

	sale := Sale{
		InvoiceNo:  input.InvoiceNo,
		CustomerID: input.CustomerID,
		Total:      total,
		Paid:       input.Paid,
		Balance:    total - input.Paid,
		SoldAt:     input.SoldAt,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID
		for i := range lines {
			qty, err := tx.GetStockForUpdate(ctx, lines[i].ItemID)
			if err != nil {
				return err
			}
			remaining := qty - lines[i].Qty
			if remaining < -1e-9 {
				return fmt.Errorf("%w: item %d", ErrInsufficientStock, lines[i].ItemID)
			}
			if err := tx.SetStock(ctx, lines[i].ItemID, remaining); err != nil {
				return err
			}
			lines[i].SaleID = saleID
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}
	sale.Items = lines
	return sale, nil
}

// UpdatePayment records a payment against an invoice.
func (s *Service) UpdatePayment(ctx context.Context, id int64, paid float64) (Sale, error) {
	if paid < 0 {
		return Sale{}, fmt.Errorf("%w: paid cannot be negative", httpx.ErrValidation)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if paid > current.Total {
		return Sale{}, ErrOverpaid
	}
	return s.repo.UpdatePayment(ctx, id, paid)
}

// Delete voids an invoice, restoring the stock its lines consumed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.DeleteSale(ctx, id)
		if err != nil {
			return err
		}
		for _, line := range lines {
			qty, err := tx.GetStockForUpdate(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if err := tx.SetStock(ctx, line.ItemID, qty+line.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

// MonthlyReport aggregates invoice totals per month.
func (s *Service) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	return s.repo.MonthlyReport(ctx, from, to)
}
