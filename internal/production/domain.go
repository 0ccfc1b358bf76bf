package production

import (
	"errors"
	"time"
)

// Production is one production run. Its items record what the run yielded;
// posting an item increments that item's stock.
type Production struct {
	ID        int64
	RunNo     string
	MadeAt    time.Time
	Notes     string
	Items     []ProductionItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductionItem is one produced quantity within a run.
type ProductionItem struct {
	ID           int64
	ProductionID int64
	ItemID       int64
	Item         string
	Qty          float64
}

// Input carries a new production run with its yields.
type Input struct {
	RunNo  string
	MadeAt time.Time
	Notes  string
	Items  []LineInput
}

// LineInput is one requested yield line.
type LineInput struct {
	ItemID int64
	Qty    float64
}

// ReportRow aggregates production output for one calendar month.
type ReportRow struct {
	Year  int
	Month time.Month
	Qty   float64
	Runs  int64
}

// ErrNoLines rejects runs without a single yield line.
var ErrNoLines = errors.New("production: run needs at least one line")
