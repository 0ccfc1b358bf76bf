package contacts

import (
	"log/slog"
	"net/http"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the four contact ledgers as separate endpoint families
// sharing one implementation.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the ledger endpoints. Each ledger's list/create operations
// carry that ledger's leaf grant; edits and deletes require the owning
// section grant (creditors side or debtors side).
func (h *Handler) Routes() []routes.Route {
	ledger := func(path string, kind Kind, leaf, section string) []routes.Route {
		return []routes.Route{
			{Method: http.MethodGet, Path: path, Permission: leaf, Handler: h.list(kind)},
			{Method: http.MethodPost, Path: path, Permission: leaf, Handler: h.create(kind)},
			{Method: http.MethodPut, Path: path + "/{id}", Permission: section, Handler: h.update(kind)},
			{Method: http.MethodDelete, Path: path + "/{id}", Permission: section, Handler: h.remove(kind)},
		}
	}
	var all []routes.Route
	all = append(all, ledger("/api/suppliers", KindSupplier, authz.PermSuppliers, authz.PermCreditorsManagement)...)
	all = append(all, ledger("/api/creditors", KindCreditor, authz.PermCreditorsList, authz.PermCreditorsManagement)...)
	all = append(all, ledger("/api/customers", KindCustomer, authz.PermCustomers, authz.PermDebtorsManagement)...)
	all = append(all, ledger("/api/debtors", KindDebtor, authz.PermDebtorsList, authz.PermDebtorsManagement)...)
	return all
}

type contactRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

type contactPayload struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone,omitempty"`
	Email   string  `json:"email,omitempty"`
	Address string  `json:"address,omitempty"`
	Balance float64 `json:"balance"`
}

func payload(c Contact) contactPayload {
	return contactPayload{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address, Balance: c.Balance}
}

func (h *Handler) list(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.List(r.Context(), kind)
		if err != nil {
			h.logger.Error("list contacts", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		payloads := make([]contactPayload, 0, len(list))
		for _, c := range list {
			payloads = append(payloads, payload(c))
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"contacts": payloads})
	}
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed contact payload")
			return
		}
		c, err := h.service.Create(r.Context(), kind, Input{
			Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, Balance: req.Balance,
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.Created(w, payload(c))
	}
}

func (h *Handler) update(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var req contactRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed contact payload")
			return
		}
		c, err := h.service.Update(r.Context(), kind, id, Input{
			Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, Balance: req.Balance,
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, payload(c))
	}
}

func (h *Handler) remove(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.service.Delete(r.Context(), kind, id); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.NoContent(w)
	}
}
