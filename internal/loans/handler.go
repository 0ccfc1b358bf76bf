package loans

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

// Handler exposes the loan endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the loan endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/loans", Permission: authz.PermAddLoan, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/loans", Permission: authz.PermAddLoan, Handler: h.create},
		{Method: http.MethodPut, Path: "/api/loans/{id}", Permission: authz.PermLoanManagement, Handler: h.update},
		{Method: http.MethodDelete, Path: "/api/loans/{id}", Permission: authz.PermLoanManagement, Handler: h.remove},
		{Method: http.MethodGet, Path: "/api/loan-installments", Permission: authz.PermLoanInstallments, Handler: h.listInstallments},
		{Method: http.MethodPost, Path: "/api/loan-installments", Permission: authz.PermLoanInstallments, Handler: h.postInstallment},
		{Method: http.MethodGet, Path: "/api/loans/report", Permission: authz.PermLoanReports, Handler: h.report},
	}
}

type loanRequest struct {
	Lender    string  `json:"lender"`
	Principal float64 `json:"principal"`
	Rate      float64 `json:"rate"`
	StartedAt string  `json:"started_at"`
	DueAt     string  `json:"due_at"`
}

func (req loanRequest) input() (LoanInput, error) {
	input := LoanInput{Lender: req.Lender, Principal: req.Principal, Rate: req.Rate}
	if req.StartedAt != "" {
		started, err := time.Parse("2006-01-02", req.StartedAt)
		if err != nil {
			return input, httpx.ErrValidation
		}
		input.StartedAt = started
	}
	if req.DueAt != "" {
		due, err := time.Parse("2006-01-02", req.DueAt)
		if err != nil {
			return input, httpx.ErrValidation
		}
		input.DueAt = due
	}
	return input, nil
}

type loanPayload struct {
	ID        int64   `json:"id"`
	Lender    string  `json:"lender"`
	Principal float64 `json:"principal"`
	Rate      float64 `json:"rate"`
	Paid      float64 `json:"paid"`
	Balance   float64 `json:"balance"`
	StartedAt string  `json:"started_at"`
	DueAt     string  `json:"due_at,omitempty"`
}

func loanToPayload(l Loan) loanPayload {
	p := loanPayload{
		ID: l.ID, Lender: l.Lender, Principal: l.Principal, Rate: l.Rate,
		Paid: l.Paid, Balance: l.Balance, StartedAt: l.StartedAt.Format("2006-01-02"),
	}
	if !l.DueAt.IsZero() {
		p.DueAt = l.DueAt.Format("2006-01-02")
	}
	return p
}

type installmentPayload struct {
	ID      int64   `json:"id"`
	LoanID  int64   `json:"loan_id"`
	Lender  string  `json:"lender,omitempty"`
	Amount  float64 `json:"amount"`
	PaidAt  string  `json:"paid_at"`
	Balance float64 `json:"balance"`
}

func installmentToPayload(i Installment) installmentPayload {
	return installmentPayload{
		ID: i.ID, LoanID: i.LoanID, Lender: i.Lender, Amount: i.Amount,
		PaidAt: i.PaidAt.Format("2006-01-02"), Balance: i.Balance,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list loans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]loanPayload, 0, len(loans))
	for _, l := range loans {
		payloads = append(payloads, loanToPayload(l))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"loans": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed loan payload")
		return
	}
	input, err := req.input()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, loanToPayload(l))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req loanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed loan payload")
		return
	}
	input, err := req.input()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loanToPayload(l))
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

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	loanID, _ := strconv.ParseInt(r.URL.Query().Get("loan_id"), 10, 64)
	list, err := h.service.ListInstallments(r.Context(), loanID)
	if err != nil {
		h.logger.Error("list installments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]installmentPayload, 0, len(list))
	for _, i := range list {
		payloads = append(payloads, installmentToPayload(i))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": payloads})
}

func (h *Handler) postInstallment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoanID int64   `json:"loan_id"`
		Amount float64 `json:"amount"`
		PaidAt string  `json:"paid_at"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed installment payload")
		return
	}
	var paidAt time.Time
	if req.PaidAt != "" {
		var err error
		if paidAt, err = time.Parse("2006-01-02", req.PaidAt); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	inst, err := h.service.PostInstallment(r.Context(), InstallmentInput{
		LoanID: req.LoanID, Amount: req.Amount, PaidAt: paidAt,
	})
	if err != nil {
		if errors.Is(err, ErrOverpayment) || errors.Is(err, ErrInvalidAmount) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Installment Rejected", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, installmentToPayload(inst))
}

// report summarises outstanding debt across loans.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("loan report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var principal, paid, outstanding float64
	payloads := make([]loanPayload, 0, len(loans))
	for _, l := range loans {
		principal += l.Principal
		paid += l.Paid
		outstanding += l.Balance
		payloads = append(payloads, loanToPayload(l))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"loans": payloads, "principal": principal, "paid": paid, "outstanding": outstanding,
	})
}
