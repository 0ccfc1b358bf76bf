package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the sales endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/sales", Permission: authz.PermSale, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/sales", Permission: authz.PermSale, Handler: h.create},
		{Method: http.MethodGet, Path: "/api/sales/{id}", Permission: authz.PermSale, Handler: h.get},
		{Method: http.MethodPut, Path: "/api/sales/{id}", Permission: authz.PermSalesManagement, Handler: h.updatePayment},
		{Method: http.MethodDelete, Path: "/api/sales/{id}", Permission: authz.PermSalesManagement, Handler: h.remove},
		{Method: http.MethodGet, Path: "/api/sale-items", Permission: authz.PermSaleItems, Handler: h.listLines},
		{Method: http.MethodGet, Path: "/api/sales/report", Permission: authz.PermSalesReports, Handler: h.report},
	}
}

type lineRequest struct {
	ItemID int64   `json:"item_id"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
}

type saleRequest struct {
	InvoiceNo  string        `json:"invoice_no"`
	CustomerID int64         `json:"customer_id"`
	Paid       float64       `json:"paid"`
	SoldAt     string        `json:"sold_at"`
	Items      []lineRequest `json:"items"`
}

type linePayload struct {
	ID     int64   `json:"id"`
	SaleID int64   `json:"sale_id"`
	ItemID int64   `json:"item_id"`
	Item   string  `json:"item,omitempty"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	Total  float64 `json:"total"`
}

type salePayload struct {
	ID         int64         `json:"id"`
	InvoiceNo  string        `json:"invoice_no"`
	CustomerID int64         `json:"customer_id,omitempty"`
	Customer   string        `json:"customer,omitempty"`
	Total      float64       `json:"total"`
	Paid       float64       `json:"paid"`
	Balance    float64       `json:"balance"`
	SoldAt     string        `json:"sold_at"`
	Items      []linePayload `json:"items,omitempty"`
}

func payload(s Sale) salePayload {
	p := salePayload{
		ID: s.ID, InvoiceNo: s.InvoiceNo, CustomerID: s.CustomerID, Customer: s.Customer,
		Total: s.Total, Paid: s.Paid, Balance: s.Balance, SoldAt: s.SoldAt.Format("2006-01-02"),
	}
	for _, l := range s.Items {
		p.Items = append(p.Items, linePayload{ID: l.ID, SaleID: l.SaleID, ItemID: l.ItemID, Item: l.Item, Qty: l.Qty, Price: l.Price, Total: l.Total})
	}
	return p
}

func respondSaleError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoLines) || errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrOverpaid) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invoice Rejected", err.Error())
		return
	}
	httpx.RespondError(w, err)
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
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]salePayload, 0, len(list))
	for _, s := range list {
		payloads = append(payloads, payload(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": payloads})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload(s))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed sale payload")
		return
	}
	soldAt, err := time.Parse("2006-01-02", req.SoldAt)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	input := Input{InvoiceNo: req.InvoiceNo, CustomerID: req.CustomerID, Paid: req.Paid, SoldAt: soldAt}
	for _, line := range req.Items {
		input.Items = append(input.Items, LineInput{ItemID: line.ItemID, Qty: line.Qty, Price: line.Price})
	}
	s, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondSaleError(w, err)
		return
	}
	httpx.Created(w, payload(s))
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Paid float64 `json:"paid"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payment payload")
		return
	}
	s, err := h.service.UpdatePayment(r.Context(), id, req.Paid)
	if err != nil {
		respondSaleError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload(s))
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

func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.ListLines(r.Context())
	if err != nil {
		h.logger.Error("list sale items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]linePayload, 0, len(lines))
	for _, l := range lines {
		payloads = append(payloads, linePayload{ID: l.ID, SaleID: l.SaleID, ItemID: l.ItemID, Item: l.Item, Qty: l.Qty, Price: l.Price, Total: l.Total})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sale_items": payloads})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.MonthlyReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("sales report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type rowPayload struct {
		Year  int     `json:"year"`
		Month int     `json:"month"`
		Total float64 `json:"total"`
		Paid  float64 `json:"paid"`
		Count int64   `json:"count"`
	}
	rows := make([]rowPayload, 0, len(report))
	for _, row := range report {
		rows = append(rows, rowPayload{Year: row.Year, Month: int(row.Month), Total: row.Total, Paid: row.Paid, Count: row.Count})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}
