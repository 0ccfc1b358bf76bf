package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	items     map[int64]Item
	stocks    map[int64]float64
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item), stocks: make(map[int64]float64)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListItems(ctx context.Context) ([]Item, error) {
	var out []Item
	for _, it := range r.items {
		out = append(out, it)
	}
	return out, nil
}

func (r *memoryRepo) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	r.nextID++
	it := Item{ID: r.nextID, Name: input.Name, Category: input.Category, Unit: input.Unit, SellingPrice: input.SellingPrice}
	r.items[it.ID] = it
	r.stocks[it.ID] = 0
	return it, nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	if _, ok := r.items[id]; !ok {
		return Item{}, httpx.ErrNotFound
	}
	it := Item{ID: id, Name: input.Name, Category: input.Category, Unit: input.Unit, SellingPrice: input.SellingPrice}
	r.items[id] = it
	return it, nil
}

func (r *memoryRepo) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.items, id)
	delete(r.stocks, id)
	return nil
}

func (r *memoryRepo) ListStocks(ctx context.Context) ([]Stock, error) {
	var out []Stock
	for id, qty := range r.stocks {
		out = append(out, Stock{ItemID: id, ItemName: r.items[id].Name, Quantity: qty})
	}
	return out, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if itemID == 0 || m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *memoryTx) GetQuantityForUpdate(ctx context.Context, itemID int64) (float64, error) {
	qty, ok := t.repo.stocks[itemID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return qty, nil
}

func (t *memoryTx) SetQuantity(ctx context.Context, itemID int64, qty float64) error {
	t.repo.stocks[itemID] = qty
	return nil
}

func (t *memoryTx) InsertMovement(ctx context.Context, itemID int64, delta, balance float64, reason string) error {
	t.repo.movements = append(t.repo.movements, Movement{
		ID: int64(len(t.repo.movements) + 1), ItemID: itemID,
		Delta: delta, Balance: balance, Reason: reason, PostedAt: time.Now(),
	})
	return nil
}

func seedItem(t *testing.T, svc *Service) Item {
	t.Helper()
	it, err := svc.CreateItem(context.Background(), ItemInput{Name: "Flour", Unit: "kg", SellingPrice: 2.5})
	require.NoError(t, err)
	return it
}

func TestAdjustTracksBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	it := seedItem(t, svc)
	ctx := context.Background()

	stock, err := svc.Adjust(ctx, AdjustmentInput{ItemID: it.ID, Delta: 100, Reason: "initial load"})
	require.NoError(t, err)
	require.InDelta(t, 100.0, stock.Quantity, 0.0001)

	stock, err = svc.Adjust(ctx, AdjustmentInput{ItemID: it.ID, Delta: -30, Reason: "sale"})
	require.NoError(t, err)
	require.InDelta(t, 70.0, stock.Quantity, 0.0001)

	movements, err := svc.ListMovements(ctx, it.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.InDelta(t, 70.0, movements[1].Balance, 0.0001)
}

func TestAdjustRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	it := seedItem(t, svc)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, AdjustmentInput{ItemID: it.ID, Delta: 10})
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, AdjustmentInput{ItemID: it.ID, Delta: -10.5})
	require.ErrorIs(t, err, ErrNegativeStock)

	// Draining to exactly zero is fine.
	stock, err := svc.Adjust(ctx, AdjustmentInput{ItemID: it.ID, Delta: -10})
	require.NoError(t, err)
	require.Zero(t, stock.Quantity)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	it := seedItem(t, svc)

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ItemID: it.ID, Delta: 0})
	require.ErrorIs(t, err, ErrZeroDelta)
}

func TestAdjustUnknownItem(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Adjust(context.Background(), AdjustmentInput{ItemID: 99, Delta: 5})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestItemValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, ItemInput{Name: " "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateItem(ctx, ItemInput{Name: "Flour", SellingPrice: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
