package planning

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	ListTargets(ctx context.Context) ([]Target, error)
	CreateTarget(ctx context.Context, input TargetInput) (Target, error)
	UpdateTarget(ctx context.Context, id int64, input TargetInput) (Target, error)
	DeleteTarget(ctx context.Context, id int64) error
	MonthlySummary(ctx context.Context, year int) ([]MonthSummary, error)
}

// Service coordinates planning operations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// PastYear summarises the given calendar year, defaulting to the one before
// the current year when year is zero.
func (s *Service) PastYear(ctx context.Context, year int) (YearSummary, error) {
	if year == 0 {
		year = s.now().UTC().Year() - 1
	}
	months, err := s.repo.MonthlySummary(ctx, year)
	if err != nil {
		return YearSummary{}, err
	}
	summary := YearSummary{Year: year, Months: months}
	for _, m := range months {
		summary.Sales += m.Sales
		summary.Expenses += m.Expenses
	}
	summary.Net = summary.Sales - summary.Expenses
	return summary, nil
}

// NextYear projects the coming year from the two most recent complete years.
// With no earlier year to derive growth from, it carries last year forward
// unchanged.
func (s *Service) NextYear(ctx context.Context) (Forecast, error) {
	current := s.now().UTC().Year()
	last, err := s.PastYear(ctx, current-1)
	if err != nil {
		return Forecast{}, err
	}
	prior, err := s.PastYear(ctx, current-2)
	if err != nil {
		return Forecast{}, err
	}
	growth := 0.0
	if prior.Sales > 0 {
		growth = (last.Sales - prior.Sales) / prior.Sales
	}
	f := Forecast{
		Year:     current + 1,
		Sales:    last.Sales * (1 + growth),
		Expenses: last.Expenses * (1 + growth),
		Growth:   growth,
	}
	f.Net = f.Sales - f.Expenses
	return f, nil
}

// ListTargets returns every target with its actual-to-date figure.
func (s *Service) ListTargets(ctx context.Context) ([]TargetStatus, error) {
	targets, err := s.repo.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	actuals := make(map[int]YearSummary)
	out := make([]TargetStatus, 0, len(targets))
	for _, t := range targets {
		summary, ok := actuals[t.Year]
		if !ok {
			if summary, err = s.PastYear(ctx, t.Year); err != nil {
				return nil, err
			}
			actuals[t.Year] = summary
		}
		status := TargetStatus{Target: t}
		switch t.Metric {
		case MetricSales:
			status.Achieved = summary.Sales
		case MetricExpenses:
			status.Achieved = summary.Expenses
		}
		if t.Amount > 0 {
			status.Percent = math.Round(status.Achieved/t.Amount*10000) / 100
		}
		out = append(out, status)
	}
	return out, nil
}

// CreateTarget validates and records a target.
func (s *Service) CreateTarget(ctx context.Context, input TargetInput) (Target, error) {
	if err := check(input); err != nil {
		return Target{}, err
	}
	return s.repo.CreateTarget(ctx, input)
}

// UpdateTarget rewrites a target.
func (s *Service) UpdateTarget(ctx context.Context, id int64, input TargetInput) (Target, error) {
	if err := check(input); err != nil {
		return Target{}, err
	}
	return s.repo.UpdateTarget(ctx, id, input)
}

// DeleteTarget removes a target.
func (s *Service) DeleteTarget(ctx context.Context, id int64) error {
	return s.repo.DeleteTarget(ctx, id)
}

func check(input TargetInput) error {
	if input.Year < 2000 || input.Year > 2100 {
		return fmt.Errorf("%w: year out of range", httpx.ErrValidation)
	}
	if input.Metric != MetricSales && input.Metric != MetricExpenses {
		return fmt.Errorf("%w: unknown metric %q", httpx.ErrValidation, input.Metric)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	return nil
}
