package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes item and stock endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the inventory endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/items", Permission: authz.PermItems, Handler: h.listItems},
		{Method: http.MethodPost, Path: "/api/items", Permission: authz.PermItems, Handler: h.createItem},
		{Method: http.MethodPut, Path: "/api/items/{id}", Permission: authz.PermInventoryManagement, Handler: h.updateItem},
		{Method: http.MethodDelete, Path: "/api/items/{id}", Permission: authz.PermInventoryManagement, Handler: h.deleteItem},
		{Method: http.MethodGet, Path: "/api/stocks", Permission: authz.PermStockList, Handler: h.listStocks},
		{Method: http.MethodPost, Path: "/api/stocks/adjust", Permission: authz.PermStockList, Handler: h.adjust},
		{Method: http.MethodGet, Path: "/api/stocks/report", Permission: authz.PermStockReports, Handler: h.report},
	}
}

type itemRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	SellingPrice float64 `json:"selling_price"`
}

type itemPayload struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Unit         string  `json:"unit,omitempty"`
	SellingPrice float64 `json:"selling_price"`
}

func itemToPayload(it Item) itemPayload {
	return itemPayload{ID: it.ID, Name: it.Name, Category: it.Category, Unit: it.Unit, SellingPrice: it.SellingPrice}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]itemPayload, 0, len(items))
	for _, it := range items {
		payloads = append(payloads, itemToPayload(it))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payloads})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed item payload")
		return
	}
	it, err := h.service.CreateItem(r.Context(), ItemInput{
		Name: req.Name, Category: req.Category, Unit: req.Unit, SellingPrice: req.SellingPrice,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, itemToPayload(it))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed item payload")
		return
	}
	it, err := h.service.UpdateItem(r.Context(), id, ItemInput{
		Name: req.Name, Category: req.Category, Unit: req.Unit, SellingPrice: req.SellingPrice,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemToPayload(it))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.ListStocks(r.Context())
	if err != nil {
		h.logger.Error("list stocks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type stockPayload struct {
		ItemID   int64   `json:"item_id"`
		ItemName string  `json:"item_name"`
		Quantity float64 `json:"quantity"`
	}
	payloads := make([]stockPayload, 0, len(stocks))
	for _, s := range stocks {
		payloads = append(payloads, stockPayload{ItemID: s.ItemID, ItemName: s.ItemName, Quantity: s.Quantity})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stocks": payloads})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID int64   `json:"item_id"`
		Delta  float64 `json:"delta"`
		Reason string  `json:"reason"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed adjustment payload")
		return
	}
	stock, err := h.service.Adjust(r.Context(), AdjustmentInput{ItemID: req.ItemID, Delta: req.Delta, Reason: req.Reason})
	if err != nil {
		if errors.Is(err, ErrNegativeStock) || errors.Is(err, ErrZeroDelta) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Adjustment Rejected", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item_id": stock.ItemID, "quantity": stock.Quantity})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	itemID, _ := strconv.ParseInt(r.URL.Query().Get("item_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.ListMovements(r.Context(), itemID, limit)
	if err != nil {
		h.logger.Error("stock report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type movementPayload struct {
		ID       int64   `json:"id"`
		ItemID   int64   `json:"item_id"`
		ItemName string  `json:"item_name"`
		Delta    float64 `json:"delta"`
		Balance  float64 `json:"balance"`
		Reason   string  `json:"reason,omitempty"`
		PostedAt string  `json:"posted_at"`
	}
	payloads := make([]movementPayload, 0, len(movements))
	for _, m := range movements {
		payloads = append(payloads, movementPayload{
			ID: m.ID, ItemID: m.ItemID, ItemName: m.ItemName,
			Delta: m.Delta, Balance: m.Balance, Reason: m.Reason,
			PostedAt: m.PostedAt.Format("2006-01-02 15:04:05"),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": payloads})
}
