package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	expenses map[int64]Expense
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{expenses: make(map[int64]Expense)}
}

func (r *memoryRepo) List(ctx context.Context, from, to time.Time) ([]Expense, error) {
	var out []Expense
	for _, e := range r.expenses {
		if !from.IsZero() && e.SpentAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.SpentAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, input Input) (Expense, error) {
	r.nextID++
	e := Expense{ID: r.nextID, Title: input.Title, Amount: input.Amount, SpentAt: input.SpentAt, Description: input.Description}
	r.expenses[e.ID] = e
	return e, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, input Input) (Expense, error) {
	if _, ok := r.expenses[id]; !ok {
		return Expense{}, httpx.ErrNotFound
	}
	e := Expense{ID: id, Title: input.Title, Amount: input.Amount, SpentAt: input.SpentAt, Description: input.Description}
	r.expenses[id] = e
	return e, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.expenses[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *memoryRepo) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	totals := make(map[[2]int]*ReportRow)
	for _, e := range r.expenses {
		key := [2]int{e.SpentAt.Year(), int(e.SpentAt.Month())}
		row, ok := totals[key]
		if !ok {
			row = &ReportRow{Year: key[0], Month: time.Month(key[1])}
			totals[key] = row
		}
		row.Total += e.Amount
		row.Count++
	}
	var out []ReportRow
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Title: "", Amount: 10, SpentAt: date("2026-01-15")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Input{Title: "Fuel", Amount: 0, SpentAt: date("2026-01-15")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Input{Title: "Fuel", Amount: -5, SpentAt: date("2026-01-15")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	e, err := svc.Create(ctx, Input{Title: "  Fuel ", Amount: 120.50, SpentAt: date("2026-01-15")})
	require.NoError(t, err)
	require.Equal(t, "Fuel", e.Title)
}

func TestListWindow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Title: "January", Amount: 10, SpentAt: date("2026-01-10")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: "February", Amount: 20, SpentAt: date("2026-02-10")})
	require.NoError(t, err)

	list, err := svc.List(ctx, date("2026-02-01"), date("2026-03-01"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "February", list[0].Title)
}

func TestMonthlyReportTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for _, amount := range []float64{10, 15, 25} {
		_, err := svc.Create(ctx, Input{Title: "Entry", Amount: amount, SpentAt: date("2026-03-05")})
		require.NoError(t, err)
	}

	rows, err := svc.MonthlyReport(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2026, rows[0].Year)
	require.Equal(t, time.March, rows[0].Month)
	require.InDelta(t, 50.0, rows[0].Total, 0.0001)
	require.Equal(t, int64(3), rows[0].Count)
}
