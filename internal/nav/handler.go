package nav

import (
	"net/http"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler serves the sidebar menu for the current user.
type Handler struct {
	registry *authz.Registry
	table    *routes.Table
}

// NewHandler constructs a Handler. The table reference may gain routes after
// construction; only its final validated state is read at request time.
func NewHandler(registry *authz.Registry, table *routes.Table) *Handler {
	return &Handler{registry: registry, table: table}
}

// Routes declares the navigation endpoint, visible to any authenticated user.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/navigation", Handler: h.getMenu},
	}
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFromContext(r.Context())
	entries := Build(h.table, func(permission string) bool {
		return user.Allowed(h.registry, permission)
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"menu": entries})
}
