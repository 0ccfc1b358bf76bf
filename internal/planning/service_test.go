package planning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	targets map[int64]Target
	years   map[int][]MonthSummary
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{targets: make(map[int64]Target), years: make(map[int][]MonthSummary)}
}

func (r *memoryRepo) ListTargets(ctx context.Context) ([]Target, error) {
	var out []Target
	for _, t := range r.targets {
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryRepo) CreateTarget(ctx context.Context, input TargetInput) (Target, error) {
	r.nextID++
	t := Target{ID: r.nextID, Year: input.Year, Metric: input.Metric, Amount: input.Amount, Notes: input.Notes}
	r.targets[t.ID] = t
	return t, nil
}

func (r *memoryRepo) UpdateTarget(ctx context.Context, id int64, input TargetInput) (Target, error) {
	t, ok := r.targets[id]
	if !ok {
		return Target{}, httpx.ErrNotFound
	}
	t.Year, t.Metric, t.Amount, t.Notes = input.Year, input.Metric, input.Amount, input.Notes
	r.targets[id] = t
	return t, nil
}

func (r *memoryRepo) DeleteTarget(ctx context.Context, id int64) error {
	if _, ok := r.targets[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.targets, id)
	return nil
}

func (r *memoryRepo) MonthlySummary(ctx context.Context, year int) ([]MonthSummary, error) {
	return r.years[year], nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func TestPastYearSummary(t *testing.T) {
	svc, repo := newTestService()
	repo.years[2025] = []MonthSummary{
		{Month: time.January, Sales: 1000, Expenses: 400},
		{Month: time.February, Sales: 1200, Expenses: 500},
	}

	summary, err := svc.PastYear(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 2025, summary.Year)
	require.InDelta(t, 2200.0, summary.Sales, 0.0001)
	require.InDelta(t, 900.0, summary.Expenses, 0.0001)
	require.InDelta(t, 1300.0, summary.Net, 0.0001)
	require.Len(t, summary.Months, 2)
}

func TestForecastAppliesGrowth(t *testing.T) {
	svc, repo := newTestService()
	repo.years[2024] = []MonthSummary{{Month: time.January, Sales: 1000, Expenses: 500}}
	repo.years[2025] = []MonthSummary{{Month: time.January, Sales: 1100, Expenses: 550}}

	f, err := svc.NextYear(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2027, f.Year)
	require.InDelta(t, 0.10, f.Growth, 0.0001)
	require.InDelta(t, 1210.0, f.Sales, 0.0001)
	require.InDelta(t, 605.0, f.Expenses, 0.0001)
}

func TestForecastWithoutHistoryCarriesForward(t *testing.T) {
	svc, repo := newTestService()
	repo.years[2025] = []MonthSummary{{Month: time.January, Sales: 800, Expenses: 300}}

	f, err := svc.NextYear(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0.0, f.Growth, 0.0001)
	require.InDelta(t, 800.0, f.Sales, 0.0001)
}

func TestTargetStatusReportsAchievement(t *testing.T) {
	svc, repo := newTestService()
	repo.years[2025] = []MonthSummary{{Month: time.January, Sales: 750, Expenses: 200}}

	_, err := svc.CreateTarget(context.Background(), TargetInput{Year: 2025, Metric: MetricSales, Amount: 1000})
	require.NoError(t, err)

	statuses, err := svc.ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.InDelta(t, 750.0, statuses[0].Achieved, 0.0001)
	require.InDelta(t, 75.0, statuses[0].Percent, 0.0001)
}

func TestTargetValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateTarget(ctx, TargetInput{Year: 1999, Metric: MetricSales, Amount: 100})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateTarget(ctx, TargetInput{Year: 2025, Metric: "profit", Amount: 100})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateTarget(ctx, TargetInput{Year: 2025, Metric: MetricExpenses, Amount: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
