package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	sales  map[int64]Sale
	lines  map[int64][]SaleItem
	stocks map[int64]float64
	nextID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sales: make(map[int64]Sale), lines: make(map[int64][]SaleItem), stocks: make(map[int64]float64)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// Snapshot so a failed invoice leaves nothing behind, mirroring rollback.
	salesCopy := make(map[int64]Sale, len(r.sales))
	for k, v := range r.sales {
		salesCopy[k] = v
	}
	linesCopy := make(map[int64][]SaleItem, len(r.lines))
	for k, v := range r.lines {
		linesCopy[k] = append([]SaleItem(nil), v...)
	}
	stocksCopy := make(map[int64]float64, len(r.stocks))
	for k, v := range r.stocks {
		stocksCopy[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.sales, r.lines, r.stocks = salesCopy, linesCopy, stocksCopy
		return err
	}
	return nil
}

func (r *memoryRepo) List(ctx context.Context, from, to time.Time) ([]Sale, error) {
	var out []Sale
	for _, s := range r.sales {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return Sale{}, httpx.ErrNotFound
	}
	s.Items = r.lines[id]
	return s, nil
}

func (r *memoryRepo) ListLines(ctx context.Context, saleID int64) ([]SaleItem, error) {
	var out []SaleItem
	for id, lines := range r.lines {
		if saleID == 0 || id == saleID {
			out = append(out, lines...)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdatePayment(ctx context.Context, id int64, paid float64) (Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return Sale{}, httpx.ErrNotFound
	}
	s.Paid = paid
	s.Balance = s.Total - paid
	r.sales[id] = s
	return r.Get(ctx, id)
}

func (r *memoryRepo) MonthlyReport(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	totals := make(map[[2]int]*ReportRow)
	for _, s := range r.sales {
		key := [2]int{s.SoldAt.Year(), int(s.SoldAt.Month())}
		row, ok := totals[key]
		if !ok {
			row = &ReportRow{Year: key[0], Month: time.Month(key[1])}
			totals[key] = row
		}
		row.Total += s.Total
		row.Paid += s.Paid
		row.Count++
	}
	var out []ReportRow
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

func (t *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	t.repo.nextID++
	sale.ID = t.repo.nextID
	sale.Items = nil
	t.repo.sales[sale.ID] = sale
	return sale.ID, nil
}

func (t *memoryTx) InsertLine(ctx context.Context, line SaleItem) (int64, error) {
	t.repo.nextID++
	line.ID = t.repo.nextID
	t.repo.lines[line.SaleID] = append(t.repo.lines[line.SaleID], line)
	return line.ID, nil
}

func (t *memoryTx) GetStockForUpdate(ctx context.Context, itemID int64) (float64, error) {
	qty, ok := t.repo.stocks[itemID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return qty, nil
}

func (t *memoryTx) SetStock(ctx context.Context, itemID int64, qty float64) error {
	t.repo.stocks[itemID] = qty
	return nil
}

func (t *memoryTx) DeleteSale(ctx context.Context, saleID int64) ([]SaleItem, error) {
	if _, ok := t.repo.sales[saleID]; !ok {
		return nil, httpx.ErrNotFound
	}
	lines := t.repo.lines[saleID]
	delete(t.repo.sales, saleID)
	delete(t.repo.lines, saleID)
	return lines, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateComputesTotalsAndDecrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 100
	repo.stocks[2] = 10
	svc := NewService(repo)

	sale, err := svc.Create(context.Background(), Input{
		InvoiceNo: "INV-001", CustomerID: 5, Paid: 50, SoldAt: date("2026-04-01"),
		Items: []LineInput{
			{ItemID: 1, Qty: 4, Price: 25},
			{ItemID: 2, Qty: 2, Price: 10},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 120.0, sale.Total, 0.0001)
	require.InDelta(t, 70.0, sale.Balance, 0.0001)
	require.InDelta(t, 96.0, repo.stocks[1], 0.0001)
	require.InDelta(t, 8.0, repo.stocks[2], 0.0001)
}

func TestCreateRejectsOversell(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 3
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), Input{
		InvoiceNo: "INV-002", SoldAt: date("2026-04-01"),
		Items: []LineInput{{ItemID: 1, Qty: 5, Price: 10}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	// Rollback left the stock untouched and the invoice unrecorded.
	require.InDelta(t, 3.0, repo.stocks[1], 0.0001)
	require.Empty(t, repo.sales)
}

func TestCreateRejectsOverpaidAndEmpty(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{InvoiceNo: "INV-003", SoldAt: date("2026-04-01")})
	require.ErrorIs(t, err, ErrNoLines)

	_, err = svc.Create(ctx, Input{
		InvoiceNo: "INV-003", SoldAt: date("2026-04-01"), Paid: 200,
		Items: []LineInput{{ItemID: 1, Qty: 1, Price: 10}},
	})
	require.ErrorIs(t, err, ErrOverpaid)
}

func TestDeleteRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, Input{
		InvoiceNo: "INV-004", SoldAt: date("2026-04-02"),
		Items: []LineInput{{ItemID: 1, Qty: 6, Price: 5}},
	})
	require.NoError(t, err)
	require.InDelta(t, 4.0, repo.stocks[1], 0.0001)

	require.NoError(t, svc.Delete(ctx, sale.ID))
	require.InDelta(t, 10.0, repo.stocks[1], 0.0001)
	require.Empty(t, repo.sales)
}

func TestUpdatePaymentKeepsBalanceDerived(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, Input{
		InvoiceNo: "INV-005", SoldAt: date("2026-04-03"),
		Items: []LineInput{{ItemID: 1, Qty: 2, Price: 50}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePayment(ctx, sale.ID, 80)
	require.NoError(t, err)
	require.InDelta(t, 20.0, updated.Balance, 0.0001)

	_, err = svc.UpdatePayment(ctx, sale.ID, 150)
	require.ErrorIs(t, err, ErrOverpaid)
}
