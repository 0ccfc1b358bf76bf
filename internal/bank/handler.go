package bank

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the bank endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the bank endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/bank-accounts", Permission: authz.PermBankAccounts, Handler: h.listAccounts},
		{Method: http.MethodPost, Path: "/api/bank-accounts", Permission: authz.PermBankAccounts, Handler: h.createAccount},
		{Method: http.MethodPut, Path: "/api/bank-accounts/{id}", Permission: authz.PermBankManagement, Handler: h.updateAccount},
		{Method: http.MethodDelete, Path: "/api/bank-accounts/{id}", Permission: authz.PermBankManagement, Handler: h.deleteAccount},
		{Method: http.MethodGet, Path: "/api/bank-transactions", Permission: authz.PermBankTransactions, Handler: h.listTransactions},
		{Method: http.MethodPost, Path: "/api/bank-transactions", Permission: authz.PermBankTransactions, Handler: h.post},
		{Method: http.MethodGet, Path: "/api/bank-accounts/report", Permission: authz.PermBankReports, Handler: h.report},
	}
}

type accountRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type accountPayload struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Number  string  `json:"number,omitempty"`
	Balance float64 `json:"balance"`
}

func accountToPayload(a Account) accountPayload {
	return accountPayload{ID: a.ID, Name: a.Name, Number: a.Number, Balance: a.Balance}
}

type transactionPayload struct {
	ID        int64   `json:"id"`
	AccountID int64   `json:"account_id"`
	Account   string  `json:"account,omitempty"`
	Kind      string  `json:"kind"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
	PostedAt  string  `json:"posted_at"`
	Balance   float64 `json:"balance"`
}

func transactionToPayload(t Transaction) transactionPayload {
	return transactionPayload{
		ID: t.ID, AccountID: t.AccountID, Account: t.Account, Kind: string(t.Kind),
		Amount: t.Amount, Note: t.Note, PostedAt: t.PostedAt.Format("2006-01-02"), Balance: t.Balance,
	}
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

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("list bank accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]accountPayload, 0, len(accounts))
	for _, a := range accounts {
		payloads = append(payloads, accountToPayload(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": payloads})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed account payload")
		return
	}
	a, err := h.service.CreateAccount(r.Context(), AccountInput{Name: req.Name, Number: req.Number})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, accountToPayload(a))
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed account payload")
		return
	}
	a, err := h.service.UpdateAccount(r.Context(), id, AccountInput{Name: req.Name, Number: req.Number})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountToPayload(a))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	from, to, err := dateWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListTransactions(r.Context(), accountID, from, to)
	if err != nil {
		h.logger.Error("list bank transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]transactionPayload, 0, len(list))
	for _, t := range list {
		payloads = append(payloads, transactionToPayload(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": payloads})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID int64   `json:"account_id"`
		Kind      string  `json:"kind"`
		Amount    float64 `json:"amount"`
		Note      string  `json:"note"`
		PostedAt  string  `json:"posted_at"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed transaction payload")
		return
	}
	var postedAt time.Time
	if req.PostedAt != "" {
		var err error
		if postedAt, err = time.Parse("2006-01-02", req.PostedAt); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	t, err := h.service.Post(r.Context(), TransactionInput{
		AccountID: req.AccountID, Kind: TransactionKind(req.Kind),
		Amount: req.Amount, Note: req.Note, PostedAt: postedAt,
	})
	if err != nil {
		if errors.Is(err, ErrOverdraw) || errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrUnknownKind) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Transaction Rejected", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, transactionToPayload(t))
}

// report summarises balances across accounts.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("bank report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var total float64
	payloads := make([]accountPayload, 0, len(accounts))
	for _, a := range accounts {
		total += a.Balance
		payloads = append(payloads, accountToPayload(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": payloads, "total": total})
}
