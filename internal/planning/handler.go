package planning

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the planning endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the planning endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/planning/past-year", Permission: authz.PermPastYearAnalysis, Handler: h.pastYear},
		{Method: http.MethodGet, Path: "/api/planning/forecast", Permission: authz.PermNextYearAnalysis, Handler: h.forecast},
		{Method: http.MethodGet, Path: "/api/planning/targets", Permission: authz.PermAchievementTargets, Handler: h.listTargets},
		{Method: http.MethodPost, Path: "/api/planning/targets", Permission: authz.PermAchievementTargets, Handler: h.createTarget},
		{Method: http.MethodPut, Path: "/api/planning/targets/{id}", Permission: authz.PermManagementIncent, Handler: h.updateTarget},
		{Method: http.MethodDelete, Path: "/api/planning/targets/{id}", Permission: authz.PermManagementIncent, Handler: h.deleteTarget},
	}
}

type targetRequest struct {
	Year   int     `json:"year"`
	Metric string  `json:"metric"`
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

func (req targetRequest) input() TargetInput {
	return TargetInput{Year: req.Year, Metric: Metric(req.Metric), Amount: req.Amount, Notes: req.Notes}
}

type targetPayload struct {
	ID       int64   `json:"id"`
	Year     int     `json:"year"`
	Metric   string  `json:"metric"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
	Achieved float64 `json:"achieved,omitempty"`
	Percent  float64 `json:"percent,omitempty"`
}

func (h *Handler) pastYear(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	summary, err := h.service.PastYear(r.Context(), year)
	if err != nil {
		h.logger.Error("past year summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	months := make([]map[string]any, 0, len(summary.Months))
	for _, m := range summary.Months {
		months = append(months, map[string]any{
			"month": int(m.Month), "sales": m.Sales, "expenses": m.Expenses,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year": summary.Year, "months": months,
		"sales": summary.Sales, "expenses": summary.Expenses, "net": summary.Net,
	})
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.NextYear(r.Context())
	if err != nil {
		h.logger.Error("forecast", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year": f.Year, "sales": f.Sales, "expenses": f.Expenses,
		"net": f.Net, "growth": f.Growth,
	})
}

func (h *Handler) listTargets(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.ListTargets(r.Context())
	if err != nil {
		h.logger.Error("list targets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]targetPayload, 0, len(statuses))
	for _, s := range statuses {
		payloads = append(payloads, targetPayload{
			ID: s.ID, Year: s.Year, Metric: string(s.Metric), Amount: s.Amount,
			Notes: s.Notes, Achieved: s.Achieved, Percent: s.Percent,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"targets": payloads})
}

func (h *Handler) createTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed target payload")
		return
	}
	t, err := h.service.CreateTarget(r.Context(), req.input())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, targetPayload{ID: t.ID, Year: t.Year, Metric: string(t.Metric), Amount: t.Amount, Notes: t.Notes})
}

func (h *Handler) updateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req targetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed target payload")
		return
	}
	t, err := h.service.UpdateTarget(r.Context(), id, req.input())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, targetPayload{ID: t.ID, Year: t.Year, Metric: string(t.Metric), Amount: t.Amount, Notes: t.Notes})
}

func (h *Handler) deleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteTarget(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
