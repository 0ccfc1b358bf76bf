package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the report endpoints. The dashboard carries no permission;
// any authenticated user sees it.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/dashboard", Permission: "", Handler: h.dashboard},
		{Method: http.MethodGet, Path: "/api/reports/profit", Permission: authz.PermProfitReports, Handler: h.profit},
	}
}

type profitPayload struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Sales         float64 `json:"sales"`
	Expenses      float64 `json:"expenses"`
	Profit        float64 `json:"profit"`
	ProfitDisplay string  `json:"profit_display"`
}

func (h *Handler) profit(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Profit(r.Context(), from, to)
	if err != nil {
		h.logger.Error("profit report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var sales, expenses, profit float64
	payloads := make([]profitPayload, 0, len(rows))
	for _, row := range rows {
		sales += row.Sales
		expenses += row.Expenses
		profit += row.Profit
		payloads = append(payloads, profitPayload{
			Year: row.Year, Month: row.Month,
			Sales: row.Sales, Expenses: row.Expenses, Profit: row.Profit,
			ProfitDisplay: h.service.Format(row.Profit),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows": payloads, "sales": sales, "expenses": expenses,
		"profit": profit, "profit_display": h.service.Format(profit),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"month_sales":       d.MonthSales,
		"month_expenses":    d.MonthExpenses,
		"bank_balance":      d.BankBalance,
		"loans_outstanding": d.LoansOutstanding,
		"receivables":       d.Receivables,
		"payables":          d.Payables,
		"item_count":        d.ItemCount,
		"stock_quantity":    d.StockQuantity,
	})
}

func dateWindow(r *http.Request) (from, to time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			return from, to, httpx.ErrValidation
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			return from, to, httpx.ErrValidation
		}
	}
	return from, to, nil
}
