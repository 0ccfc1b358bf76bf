package expenses

import "time"

// Expense is a single outgoing cost entry.
type Expense struct {
	ID          int64
	Title       string
	Amount      float64
	SpentAt     time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input carries the fields accepted on create and update.
type Input struct {
	Title       string
	Amount      float64
	SpentAt     time.Time
	Description string
}

// ReportRow aggregates expenses for one calendar month.
type ReportRow struct {
	Year  int
	Month time.Month
	Total float64
	Count int64
}
