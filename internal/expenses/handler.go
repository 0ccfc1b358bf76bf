package expenses

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the expense endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the expense endpoints. Viewing and adding carry their own
// leaf grants; destructive edits require the section grant.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/expenses", Permission: authz.PermViewExpenses, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/expenses", Permission: authz.PermAddExpense, Handler: h.create},
		{Method: http.MethodPut, Path: "/api/expenses/{id}", Permission: authz.PermExpenseManagement, Handler: h.update},
		{Method: http.MethodDelete, Path: "/api/expenses/{id}", Permission: authz.PermExpenseManagement, Handler: h.remove},
		{Method: http.MethodGet, Path: "/api/expenses/report", Permission: authz.PermExpenseReports, Handler: h.report},
	}
}

type expenseRequest struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	SpentAt     string  `json:"spent_at"`
	Description string  `json:"description"`
}

func (req expenseRequest) input() (Input, error) {
	spentAt, err := time.Parse("2006-01-02", req.SpentAt)
	if err != nil {
		return Input{}, httpx.ErrValidation
	}
	return Input{Title: req.Title, Amount: req.Amount, SpentAt: spentAt, Description: req.Description}, nil
}

type expensePayload struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	SpentAt     string  `json:"spent_at"`
	Description string  `json:"description,omitempty"`
}

func payload(e Expense) expensePayload {
	return expensePayload{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount,
		SpentAt:     e.SpentAt.Format("2006-01-02"),
		Description: e.Description,
	}
}

// dateWindow reads optional from/to query parameters (inclusive from,
// exclusive to). A missing bound stays zero.
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]expensePayload, 0, len(list))
	for _, e := range list {
		payloads = append(payloads, payload(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed expense payload")
		return
	}
	input, err := req.input()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payload(e))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed expense payload")
		return
	}
	input, err := req.input()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload(e))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.MonthlyReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("expense report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type rowPayload struct {
		Year  int     `json:"year"`
		Month int     `json:"month"`
		Total float64 `json:"total"`
		Count int64   `json:"count"`
	}
	rows := make([]rowPayload, 0, len(report))
	for _, row := range report {
		rows = append(rows, rowPayload{Year: row.Year, Month: int(row.Month), Total: row.Total, Count: row.Count})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}
