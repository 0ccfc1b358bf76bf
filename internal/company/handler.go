package company

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes company setup and profile settings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the setup endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/company", Permission: authz.PermCompanySetup, Handler: h.getCompany},
		{Method: http.MethodPut, Path: "/api/company", Permission: authz.PermCompanySetup, Handler: h.saveCompany},
		{Method: http.MethodGet, Path: "/api/profile", Permission: authz.PermProfileSettings, Handler: h.getProfile},
		{Method: http.MethodPut, Path: "/api/profile", Permission: authz.PermProfileSettings, Handler: h.saveProfile},
	}
}

type companyRequest struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Currency        string `json:"currency"`
	FiscalYearStart int    `json:"fiscal_year_start"`
}

type companyPayload struct {
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Currency        string `json:"currency"`
	FiscalYearStart int    `json:"fiscal_year_start"`
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get company", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, companyPayload{
		Name: c.Name, Address: c.Address, Phone: c.Phone, Email: c.Email,
		Currency: c.Currency, FiscalYearStart: int(c.FiscalYearStart),
	})
}

func (h *Handler) saveCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed company payload")
		return
	}
	c, err := h.service.Save(r.Context(), Input{
		Name: req.Name, Address: req.Address, Phone: req.Phone, Email: req.Email,
		Currency: req.Currency, FiscalYearStart: time.Month(req.FiscalYearStart),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, companyPayload{
		Name: c.Name, Address: c.Address, Phone: c.Phone, Email: c.Email,
		Currency: c.Currency, FiscalYearStart: int(c.FiscalYearStart),
	})
}

type profileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profilePayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	p, err := h.service.GetProfile(r.Context(), user.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profilePayload{ID: p.ID, Name: p.Name, Email: p.Email})
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed profile payload")
		return
	}
	p, err := h.service.UpdateProfile(r.Context(), user.ID, ProfileInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profilePayload{ID: p.ID, Name: p.Name, Email: p.Email})
}
