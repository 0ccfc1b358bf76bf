package sales

import (
	"errors"
	"time"
)

// Sale is one invoice. Total is the sum of its line totals and Balance is
// Total minus Paid; both are derived server-side, never taken from the
// client.
type Sale struct {
	ID         int64
	InvoiceNo  string
	CustomerID int64
	Customer   string
	Total      float64
	Paid       float64
	Balance    float64
	SoldAt     time.Time
	Items      []SaleItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaleItem is one invoice line.
type SaleItem struct {
	ID     int64
	SaleID int64
	ItemID int64
	Item   string
	Qty    float64
	Price  float64
	Total  float64
}

// Input carries a new or edited sale with its lines.
type Input struct {
	InvoiceNo  string
	CustomerID int64
	Paid       float64
	SoldAt     time.Time
	Items      []LineInput
}

// LineInput is one requested invoice line.
type LineInput struct {
	ItemID int64
	Qty    float64
	Price  float64
}

// ReportRow aggregates sales for one calendar month.
type ReportRow struct {
	Year  int
	Month time.Month
	Total float64
	Paid  float64
	Count int64
}

var (
	// ErrNoLines rejects invoices without a single line.
	ErrNoLines = errors.New("sales: invoice needs at least one line")
	// ErrInsufficientStock rejects lines exceeding the available quantity.
	ErrInsufficientStock = errors.New("sales: insufficient stock")
	// ErrOverpaid rejects paid amounts above the invoice total.
	ErrOverpaid = errors.New("sales: paid exceeds invoice total")
)
