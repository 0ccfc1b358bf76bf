package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
	"github.com/tallybook/tallybook/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
	provider  *identity.Provider
	registry  *authz.Registry
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, provider *identity.Provider, registry *authz.Registry) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		csrf:      csrf,
		provider:  provider,
		registry:  registry,
		validator: validator.New(),
	}
}

// MountPublic registers the two endpoints reachable without the guard: the
// login entry point and the denial page.
func (h *Handler) MountPublic(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post(guard.LoginPath, h.handleLogin)
	})
	r.Get(guard.LoginPath, h.showLogin)
	r.Get(guard.DeniedPath, h.showDenied)
}

// Routes declares the guarded endpoints: logout and token validation.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodPost, Path: "/logout", Handler: h.handleLogout},
		{Method: http.MethodGet, Path: "/api/auth/validate", Handler: h.handleValidate},
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userPayload struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             string          `json:"role"`
	PermissionObject map[string]bool `json:"permissionObject"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"title":  "Sign in",
		"action": guard.LoginPath,
	})
}

func (h *Handler) showDenied(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"title":  "Not authorized",
		"detail": "You do not have permission to view this page",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed login payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(shared.ErrInvalidCredentials))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	// The stored destination survives token rotation; it is read here once
	// and cleared so a later unrelated login cannot replay it.
	redirectTo := sess.Pop(shared.LoginNextKey)
	if redirectTo == "" {
		redirectTo = "/dashboard"
	}

	oldToken := sess.ID
	if err := h.sessions.Rotate(r.Context(), sess); err != nil {
		h.logger.Error("rotate session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	h.provider.Invalidate(oldToken)
	h.provider.Invalidate(sess.ID)

	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	httpx.JSON(w, http.StatusOK, map[string]any{
		"token":       sess.ID,
		"csrf_token":  csrfToken,
		"redirect_to": redirectTo,
		"user": userPayload{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.provider.Invalidate(sess.ID)
		h.sessions.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"redirect_to": guard.LoginPath})
}

// handleValidate answers the dashboard's "validate current token" call with
// the user record and its permission grant object.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	permissionObject := make(map[string]bool, user.Permissions.Len())
	for _, id := range user.Permissions.IDs() {
		permissionObject[strconv.FormatInt(int64(id), 10)] = true
	}
	httpx.JSON(w, http.StatusOK, userPayload{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             user.RoleName,
		PermissionObject: permissionObject,
	})
}
