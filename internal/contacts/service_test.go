package contacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	contacts map[int64]Contact
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{contacts: make(map[int64]Contact)}
}

func (r *memoryRepo) List(ctx context.Context, kind Kind) ([]Contact, error) {
	var out []Contact
	for _, c := range r.contacts {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, kind Kind, input Input) (Contact, error) {
	r.nextID++
	c := Contact{ID: r.nextID, Kind: kind, Name: input.Name, Phone: input.Phone, Email: input.Email, Address: input.Address, Balance: input.Balance}
	r.contacts[c.ID] = c
	return c, nil
}

func (r *memoryRepo) Update(ctx context.Context, kind Kind, id int64, input Input) (Contact, error) {
	c, ok := r.contacts[id]
	if !ok || c.Kind != kind {
		return Contact{}, httpx.ErrNotFound
	}
	c.Name, c.Phone, c.Email, c.Address, c.Balance = input.Name, input.Phone, input.Email, input.Address, input.Balance
	r.contacts[id] = c
	return c, nil
}

func (r *memoryRepo) Delete(ctx context.Context, kind Kind, id int64) error {
	c, ok := r.contacts[id]
	if !ok || c.Kind != kind {
		return httpx.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

func TestLedgersAreIsolated(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	supplier, err := svc.Create(ctx, KindSupplier, Input{Name: "Acme Mills"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, KindCustomer, Input{Name: "Corner Shop"})
	require.NoError(t, err)

	suppliers, err := svc.List(ctx, KindSupplier)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)

	// Editing a supplier through the customer ledger must fail.
	_, err = svc.Update(ctx, KindCustomer, supplier.ID, Input{Name: "Hijack"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, KindCustomer, supplier.ID), httpx.ErrNotFound)
}

func TestBalanceOnlyOnCreditorAndDebtor(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, KindSupplier, Input{Name: "Acme Mills", Balance: 50})
	require.ErrorIs(t, err, httpx.ErrValidation)

	creditor, err := svc.Create(ctx, KindCreditor, Input{Name: "Acme Mills", Balance: 50})
	require.NoError(t, err)
	require.InDelta(t, 50.0, creditor.Balance, 0.0001)

	debtor, err := svc.Create(ctx, KindDebtor, Input{Name: "Corner Shop", Balance: 120})
	require.NoError(t, err)
	require.InDelta(t, 120.0, debtor.Balance, 0.0001)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), KindSupplier, Input{Name: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
