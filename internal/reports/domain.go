package reports

// ProfitRow is one month of sales against expenses.
type ProfitRow struct {
	Year     int
	Month    int
	Sales    float64
	Expenses float64
	Profit   float64
}

// Dashboard aggregates the figures shown on the landing screen.
type Dashboard struct {
	MonthSales       float64
	MonthExpenses    float64
	BankBalance      float64
	LoansOutstanding float64
	Receivables      float64
	Payables         float64
	ItemCount        int64
	StockQuantity    float64
}
