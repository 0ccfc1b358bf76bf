package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallybook/tallybook/internal/app"
	"github.com/tallybook/tallybook/internal/auth"
	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/bank"
	"github.com/tallybook/tallybook/internal/company"
	"github.com/tallybook/tallybook/internal/contacts"
	"github.com/tallybook/tallybook/internal/expenses"
	"github.com/tallybook/tallybook/internal/identity"
	"github.com/tallybook/tallybook/internal/inventory"
	"github.com/tallybook/tallybook/internal/loans"
	"github.com/tallybook/tallybook/internal/planning"
	"github.com/tallybook/tallybook/internal/platform/cache"
	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/production"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/roles"
	"github.com/tallybook/tallybook/internal/sales"
	"github.com/tallybook/tallybook/internal/shared"
	"github.com/tallybook/tallybook/internal/uploads"
	"github.com/tallybook/tallybook/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	registry, err := authz.DefaultRegistry()
	if err != nil {
		logger.Error("build permission registry", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo).WithAudit(shared.NewAuditLogger(pool))

	source := identity.NewSessionSource(redisClient, registry, authRepo)
	provider := identity.NewProvider(source, logger, cfg.IdentityTTL)

	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, provider, registry)
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(pool, registry), registry), registry)
	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(pool)))
	companyHandler := company.NewHandler(logger, company.NewService(company.NewRepository(pool)))
	contactsHandler := contacts.NewHandler(logger, contacts.NewService(contacts.NewRepository(pool)))
	expensesHandler := expenses.NewHandler(logger, expenses.NewService(expenses.NewRepository(pool)))
	inventoryHandler := inventory.NewHandler(logger, inventory.NewService(inventory.NewRepository(pool)))
	salesHandler := sales.NewHandler(logger, sales.NewService(sales.NewRepository(pool)))
	productionHandler := production.NewHandler(logger, production.NewService(production.NewRepository(pool)))
	bankHandler := bank.NewHandler(logger, bank.NewService(bank.NewRepository(pool), logger))
	loansHandler := loans.NewHandler(logger, loans.NewService(loans.NewRepository(pool), logger))
	planningHandler := planning.NewHandler(logger, planning.NewService(planning.NewRepository(pool)))
	reportsHandler := reports.NewHandler(logger, reports.NewService(reports.NewRepository(pool)))
	uploadsHandler := uploads.NewHandler(logger, uploads.NewService(uploads.NewRepository(pool)))

	router, err := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Registry:       registry,
		Provider:       provider,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:       authHandler,
		RolesHandler:      rolesHandler,
		UsersHandler:      usersHandler,
		CompanyHandler:    companyHandler,
		ContactsHandler:   contactsHandler,
		ExpensesHandler:   expensesHandler,
		InventoryHandler:  inventoryHandler,
		SalesHandler:      salesHandler,
		ProductionHandler: productionHandler,
		BankHandler:       bankHandler,
		LoansHandler:      loansHandler,
		PlanningHandler:   planningHandler,
		ReportsHandler:    reportsHandler,
		UploadsHandler:    uploadsHandler,
	})
	if err != nil {
		logger.Error("build router", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
