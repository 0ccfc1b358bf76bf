package planning

import "time"

// Metric names a figure a target can be set against.
type Metric string

const (
	MetricSales    Metric = "sales"
	MetricExpenses Metric = "expenses"
)

// Target is a yearly goal for one metric.
type Target struct {
	ID        int64
	Year      int
	Metric    Metric
	Amount    float64
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetInput carries the fields accepted when setting a target.
type TargetInput struct {
	Year   int
	Metric Metric
	Amount float64
	Notes  string
}

// TargetStatus is a target with its actual-to-date figure.
type TargetStatus struct {
	Target
	Achieved float64
	Percent  float64
}

// MonthSummary is one month of a year's sales and expenses.
type MonthSummary struct {
	Month    time.Month
	Sales    float64
	Expenses float64
}

// YearSummary aggregates a calendar year.
type YearSummary struct {
	Year     int
	Months   []MonthSummary
	Sales    float64
	Expenses float64
	Net      float64
}

// Forecast projects next year's figures from the trailing two years.
type Forecast struct {
	Year     int
	Sales    float64
	Expenses float64
	Net      float64
	Growth   float64
}
