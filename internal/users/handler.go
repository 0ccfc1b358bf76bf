package users

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes account management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// Routes declares the account endpoints. Listing and provisioning sit behind
// the account-setup grant; destructive edits require the section grant.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/users", Permission: authz.PermUserAccountSetup, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/users", Permission: authz.PermUserAccountSetup, Handler: h.create},
		{Method: http.MethodPut, Path: "/api/users/{id}", Permission: authz.PermUserManagement, Handler: h.update},
		{Method: http.MethodDelete, Path: "/api/users/{id}", Permission: authz.PermUserManagement, Handler: h.remove},
	}
}

type createRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   int64  `json:"role_id" validate:"required,gt=0"`
	IsActive bool   `json:"is_active"`
}

type updateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	RoleID   int64  `json:"role_id" validate:"required,gt=0"`
	IsActive bool   `json:"is_active"`
}

type userPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name,omitempty"`
	IsActive bool   `json:"is_active"`
}

func payload(u User) userPayload {
	return userPayload{ID: u.ID, Name: u.Name, Email: u.Email, RoleID: u.RoleID, RoleName: u.RoleName, IsActive: u.IsActive}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]userPayload, 0, len(list))
	for _, u := range list {
		payloads = append(payloads, payload(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	u, err := h.service.Create(r.Context(), CreateInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
		RoleID: req.RoleID, IsActive: req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payload(u))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	u, err := h.service.Update(r.Context(), id, UpdateInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
		RoleID: req.RoleID, IsActive: req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload(u))
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
