package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort defines data access methods for expenses.
type RepositoryPort interface {
	List(ctx context.Context, from, to time.Time) ([]Expense, error)
	Create(ctx context.Context, input Input) (Expense, error)
	Update(ctx context.Context, id int64, input Input) (Expense, error)
	Delete(ctx context.Context, id int64) error
	MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error)
}

// Service handles expense business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns expenses in an optional date window.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Expense, error) {
	return s.repo.List(ctx, from, to)
}

// Create validates and records an expense.
func (s *Service) Create(ctx context.Context, input Input) (Expense, error) {
	if err := check(input); err != nil {
		return Expense{}, err
	}
	return s.repo.Create(ctx, normalize(input))
}

// Update validates and rewrites an expense.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Expense, error) {
	if err := check(input); err != nil {
		return Expense{}, err
	}
	return s.repo.Update(ctx, id, normalize(input))
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// MonthlyReport aggregates totals per month.
func (s *Service) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	return s.repo.MonthlyReport(ctx, from, to)
}

func check(input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if input.SpentAt.IsZero() {
		return fmt.Errorf("%w: date required", httpx.ErrValidation)
	}
	return nil
}

func normalize(input Input) Input {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	return input
}
