package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListItems(ctx context.Context) ([]Item, error)
	CreateItem(ctx context.Context, input ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListStocks(ctx context.Context) ([]Stock, error)
	ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListItems returns all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// CreateItem validates and inserts an item.
func (s *Service) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	input, err := checkItem(input)
	if err != nil {
		return Item{}, err
	}
	return s.repo.CreateItem(ctx, input)
}

// UpdateItem validates and rewrites an item.
func (s *Service) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	input, err := checkItem(input)
	if err != nil {
		return Item{}, err
	}
	return s.repo.UpdateItem(ctx, id, input)
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// ListStocks returns current levels.
func (s *Service) ListStocks(ctx context.Context) ([]Stock, error) {
	return s.repo.ListStocks(ctx)
}

// ListMovements returns the stock report rows.
func (s *Service) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, itemID, limit)
}

func checkItem(input ItemInput) (ItemInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, fmt.Errorf("%w: item name required", httpx.ErrValidation)
	}
	if input.SellingPrice < 0 {
		return input, fmt.Errorf("%w: selling price cannot be negative", httpx.ErrValidation)
	}
	return input, nil
}

// Adjust applies a stock delta inside one transaction. The row lock makes
// concurrent adjustments to the same item serialize, so the no-negative
// check always sees the latest quantity.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (Stock, error) {
	if input.ItemID <= 0 {
		return Stock{}, fmt.Errorf("%w: item required", httpx.ErrValidation)
	}
	if math.Abs(input.Delta) < 1e-9 {
		return Stock{}, ErrZeroDelta
	}
	var result Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		qty, err := tx.GetQuantityForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		newQty := qty + input.Delta
		if newQty < -1e-9 {
			return ErrNegativeStock
		}
		if math.Abs(newQty) < 1e-9 {
			newQty = 0
		}
		if err := tx.SetQuantity(ctx, input.ItemID, newQty); err != nil {
			return err
		}
		if err := tx.InsertMovement(ctx, input.ItemID, input.Delta, newQty, strings.TrimSpace(input.Reason)); err != nil {
			return err
		}
		result = Stock{ItemID: input.ItemID, Quantity: newQty}
		return nil
	})
	if err != nil {
		return Stock{}, err
	}
	return result, nil
}
