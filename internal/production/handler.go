package production

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/inventory"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the production endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the production endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/productions", Permission: authz.PermProduction, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/productions", Permission: authz.PermProduction, Handler: h.create},
		{Method: http.MethodDelete, Path: "/api/productions/{id}", Permission: authz.PermProductionManagement, Handler: h.remove},
		{Method: http.MethodGet, Path: "/api/production-items", Permission: authz.PermProductionItems, Handler: h.listLines},
		{Method: http.MethodGet, Path: "/api/productions/report", Permission: authz.PermProductionReports, Handler: h.report},
	}
}

type lineRequest struct {
	ItemID int64   `json:"item_id"`
	Qty    float64 `json:"qty"`
}

type runRequest struct {
	RunNo  string        `json:"run_no"`
	MadeAt string        `json:"made_at"`
	Notes  string        `json:"notes"`
	Items  []lineRequest `json:"items"`
}

type linePayload struct {
	ID           int64   `json:"id"`
	ProductionID int64   `json:"production_id"`
	ItemID       int64   `json:"item_id"`
	Item         string  `json:"item,omitempty"`
	Qty          float64 `json:"qty"`
}

type runPayload struct {
	ID     int64         `json:"id"`
	RunNo  string        `json:"run_no"`
	MadeAt string        `json:"made_at"`
	Notes  string        `json:"notes,omitempty"`
	Items  []linePayload `json:"items,omitempty"`
}

func payload(p Production) runPayload {
	out := runPayload{ID: p.ID, RunNo: p.RunNo, MadeAt: p.MadeAt.Format("2006-01-02"), Notes: p.Notes}
	for _, l := range p.Items {
		out.Items = append(out.Items, linePayload{ID: l.ID, ProductionID: l.ProductionID, ItemID: l.ItemID, Item: l.Item, Qty: l.Qty})
	}
	return out
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list productions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]runPayload, 0, len(list))
	for _, p := range list {
		payloads = append(payloads, payload(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"productions": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed production payload")
		return
	}
	madeAt, err := time.Parse("2006-01-02", req.MadeAt)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	input := Input{RunNo: req.RunNo, MadeAt: madeAt, Notes: req.Notes}
	for _, line := range req.Items {
		input.Items = append(input.Items, LineInput{ItemID: line.ItemID, Qty: line.Qty})
	}
	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrNoLines) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Run Rejected", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payload(p))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, inventory.ErrNegativeStock) {
			httpx.Problem(w, http.StatusConflict, "Run In Use", "produced stock has already been consumed")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.ListLines(r.Context())
	if err != nil {
		h.logger.Error("list production items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]linePayload, 0, len(lines))
	for _, l := range lines {
		payloads = append(payloads, linePayload{ID: l.ID, ProductionID: l.ProductionID, ItemID: l.ItemID, Item: l.Item, Qty: l.Qty})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"production_items": payloads})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.MonthlyReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("production report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type rowPayload struct {
		Year  int     `json:"year"`
		Month int     `json:"month"`
		Qty   float64 `json:"qty"`
		Runs  int64   `json:"runs"`
	}
	rows := make([]rowPayload, 0, len(report))
	for _, row := range report {
		rows = append(rows, rowPayload{Year: row.Year, Month: int(row.Month), Qty: row.Qty, Runs: row.Runs})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}
