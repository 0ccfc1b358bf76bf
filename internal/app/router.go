package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tallybook/tallybook/internal/auth"
	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/bank"
	"github.com/tallybook/tallybook/internal/company"
	"github.com/tallybook/tallybook/internal/contacts"
	"github.com/tallybook/tallybook/internal/expenses"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/inventory"
	"github.com/tallybook/tallybook/internal/loans"
	"github.com/tallybook/tallybook/internal/nav"
	"github.com/tallybook/tallybook/internal/planning"
	"github.com/tallybook/tallybook/internal/production"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/roles"
	"github.com/tallybook/tallybook/internal/routes"
	"github.com/tallybook/tallybook/internal/sales"
	"github.com/tallybook/tallybook/internal/shared"
	"github.com/tallybook/tallybook/internal/uploads"
	"github.com/tallybook/tallybook/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Registry       *authz.Registry
	Provider       *identity.Provider
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler       *auth.Handler
	RolesHandler      *roles.Handler
	UsersHandler      *users.Handler
	CompanyHandler    *company.Handler
	ContactsHandler   *contacts.Handler
	ExpensesHandler   *expenses.Handler
	InventoryHandler  *inventory.Handler
	SalesHandler      *sales.Handler
	ProductionHandler *production.Handler
	BankHandler       *bank.Handler
	LoansHandler      *loans.Handler
	PlanningHandler   *planning.Handler
	ReportsHandler    *reports.Handler
	UploadsHandler    *uploads.Handler
}

// NewRouter assembles the route table, validates it against the permission
// registry and the menu, and mounts everything behind the guard. A
// configuration defect surfaces here, at startup, never at request time.
func NewRouter(params RouterParams) (http.Handler, error) {
	table := routes.NewTable(
		params.AuthHandler.Routes(),
		params.UploadsHandler.Routes(),
		params.PlanningHandler.Routes(),
		params.SalesHandler.Routes(),
		params.ExpensesHandler.Routes(),
		params.ProductionHandler.Routes(),
		params.InventoryHandler.Routes(),
		params.BankHandler.Routes(),
		params.LoansHandler.Routes(),
		params.ContactsHandler.Routes(),
		params.ReportsHandler.Routes(),
		params.CompanyHandler.Routes(),
		params.UsersHandler.Routes(),
		params.RolesHandler.Routes(),
	)
	navHandler := nav.NewHandler(params.Registry, table)
	table.Add(navHandler.Routes()...)

	if err := table.Validate(params.Registry); err != nil {
		return nil, err
	}
	if err := nav.Validate(table); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountPublic(r)

	g := guard.New(params.Registry, params.Provider, params.SessionManager, params.Logger)
	r.Group(func(r chi.Router) {
		r.Use(g.Authenticated())
		for _, route := range table.All() {
			r.With(g.Require(route.Permission)).Method(route.Method, route.Path, route.Handler)
		}
	})

	return r, nil
}
