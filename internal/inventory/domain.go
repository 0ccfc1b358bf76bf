package inventory

import (
	"errors"
	"time"
)

// Item is a sellable or producible product.
type Item struct {
	ID           int64
	Name         string
	Category     string
	Unit         string
	SellingPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ItemInput carries the fields accepted on create and update.
type ItemInput struct {
	Name         string
	Category     string
	Unit         string
	SellingPrice float64
}

// Stock is the current on-hand quantity of one item.
type Stock struct {
	ItemID    int64
	ItemName  string
	Quantity  float64
	UpdatedAt time.Time
}

// AdjustmentInput moves a stock level up or down by Delta. Reason is free
// text kept for the stock report.
type AdjustmentInput struct {
	ItemID int64
	Delta  float64
	Reason string
}

// Movement is one recorded stock change, the raw material of the stock
// report.
type Movement struct {
	ID       int64
	ItemID   int64
	ItemName string
	Delta    float64
	Balance  float64
	Reason   string
	PostedAt time.Time
}

var (
	// ErrNegativeStock rejects adjustments that would take an item below zero.
	ErrNegativeStock = errors.New("inventory: stock cannot go negative")
	// ErrZeroDelta rejects adjustments that would not change anything.
	ErrZeroDelta = errors.New("inventory: adjustment delta must be non-zero")
)
