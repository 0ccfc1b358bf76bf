package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	registry  *authz.Registry
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, registry *authz.Registry) *Handler {
	return &Handler{logger: logger, service: service, registry: registry, validator: validator.New()}
}

// Routes declares the role endpoints for the route table.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/roles", Permission: authz.PermUserRolesManagement, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/roles", Permission: authz.PermUserRolesManagement, Handler: h.create},
		{Method: http.MethodPut, Path: "/api/roles/{id}", Permission: authz.PermUserRolesManagement, Handler: h.update},
		{Method: http.MethodDelete, Path: "/api/roles/{id}", Permission: authz.PermUserRolesManagement, Handler: h.remove},
		{Method: http.MethodGet, Path: "/api/permissions", Permission: authz.PermUserRolesManagement, Handler: h.listPermissions},
	}
}

type roleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

type rolePayload struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) payload(role Role) rolePayload {
	names := make([]string, 0, role.Permissions.Len())
	for _, id := range role.Permissions.IDs() {
		if name, ok := h.registry.Name(id); ok {
			names = append(names, name)
		}
	}
	return rolePayload{ID: role.ID, Name: role.Name, IsActive: role.IsActive, Permissions: names}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]rolePayload, 0, len(list))
	for _, role := range list {
		payloads = append(payloads, h.payload(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed role payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Create(r.Context(), RoleInput{Name: req.Name, IsActive: req.IsActive, Permissions: req.Permissions})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, h.payload(role))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed role payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Update(r.Context(), id, RoleInput{Name: req.Name, IsActive: req.IsActive, Permissions: req.Permissions})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.payload(role))
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

// listPermissions serves the registry tree for the grant editor: top-level
// sections with their nested areas, in ID order.
func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	type permPayload struct {
		ID   authz.PermissionID `json:"id"`
		Name string             `json:"name"`
	}
	type sectionPayload struct {
		ID       authz.PermissionID `json:"id"`
		Name     string             `json:"name"`
		Children []permPayload      `json:"children,omitempty"`
	}
	var payload []sectionPayload
	for _, sec := range h.registry.Sections() {
		sp := sectionPayload{ID: sec.ID, Name: sec.Name}
		for _, child := range sec.Children {
			sp.Children = append(sp.Children, permPayload{ID: child.ID, Name: child.Name})
		}
		payload = append(payload, sp)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sections": payload})
}
