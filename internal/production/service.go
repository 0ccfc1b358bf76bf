package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tallybook/tallybook/internal/inventory"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, from, to time.Time) ([]Production, error)
	ListLines(ctx context.Context, runID int64) ([]ProductionItem, error)
	MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error)
}

// Service coordinates production runs.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns runs in an optional window.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Production, error) {
	return s.repo.List(ctx, from, to)
}

// ListLines returns yield lines across all runs.
func (s *Service) ListLines(ctx context.Context) ([]ProductionItem, error) {
	return s.repo.ListLines(ctx, 0)
}

// Create posts a run: the run row, its lines and the stock increments all
// land in one transaction.
func (s *Service) Create(ctx context.Context, input Input) (Production, error) {
	input.RunNo = strings.TrimSpace(input.RunNo)
	if input.RunNo == "" {
		return Production{}, fmt.Errorf("%w: run number required", httpx.ErrValidation)
	}
	if input.MadeAt.IsZero() {
		return Production{}, fmt.Errorf("%w: production date required", httpx.ErrValidation)
	}
	if len(input.Items) == 0 {
		return Production{}, ErrNoLines
	}
	lines := make([]ProductionItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.ItemID <= 0 || line.Qty <= 0 {
			return Production{}, fmt.Errorf("%w: invalid yield line", httpx.ErrValidation)
		}
		lines = append(lines, ProductionItem{ItemID: line.ItemID, Qty: line.Qty})
	}

	run := Production{RunNo: input.RunNo, MadeAt: input.MadeAt, Notes: strings.TrimSpace(input.Notes)}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		runID, err := tx.InsertRun(ctx, run)
		if err != nil {
			return err
		}
		run.ID = runID
		for i := range lines {
			qty, err := tx.GetStockForUpdate(ctx, lines[i].ItemID)
			if err != nil {
				return err
			}
			if err := tx.SetStock(ctx, lines[i].ItemID, qty+lines[i].Qty); err != nil {
				return err
			}
			lines[i].ProductionID = runID
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return Production{}, err
	}
	run.Items = lines
	return run, nil
}

// Delete voids a run, backing its yields out of stock. If a yield has
// already been consumed downstream the no-negative rule wins and the run
// stays.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.DeleteRun(ctx, id)
		if err != nil {
			return err
		}
		for _, line := range lines {
			qty, err := tx.GetStockForUpdate(ctx, line.ItemID)
			if err != nil {
				return err
			}
			remaining := qty - line.Qty
			if remaining < -1e-9 {
				return inventory.ErrNegativeStock
			}
			if err := tx.SetStock(ctx, line.ItemID, remaining); err != nil {
				return err
			}
		}
		return nil
	})
}

// MonthlyReport aggregates output per month.
func (s *Service) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	return s.repo.MonthlyReport(ctx, from, to)
}
