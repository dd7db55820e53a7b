package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/novapharm/novapharm/cmd/novapharm/cli"
	"github.com/novapharm/novapharm/internal/app"
	"github.com/novapharm/novapharm/internal/auth"
	"github.com/novapharm/novapharm/internal/customers"
	"github.com/novapharm/novapharm/internal/dashboard"
	inventoryhttp "github.com/novapharm/novapharm/internal/inventory/http"
	"github.com/novapharm/novapharm/internal/observability"
	"github.com/novapharm/novapharm/internal/pharmacy"
	"github.com/novapharm/novapharm/internal/platform/cache"
	"github.com/novapharm/novapharm/internal/platform/db"
	"github.com/novapharm/novapharm/internal/procurement"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/reports"
	"github.com/novapharm/novapharm/internal/sales"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/suppliers"
	"github.com/novapharm/novapharm/internal/view"
	"github.com/novapharm/novapharm/jobs"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCLI(ctx, cfg, os.Args[2:]); err != nil {
			slog.Default().Error("jobs cli", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "novapharm_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine(view.NewFormatter(cfg.DisplayLocale, cfg.CurrencySuffix))
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	pharmacyRepo := pharmacy.NewRepository(dbpool)
	pharmacyService := pharmacy.NewService(pharmacyRepo)
	pharmacyHandler := pharmacy.NewHandler(logger, pharmacyService, templates, csrfManager)
	tenantMiddleware := pharmacy.Middleware{Service: pharmacyService, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService, templates, csrfManager)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService, templates, csrfManager)

	supplierRepo := suppliers.NewRepository(dbpool)
	supplierService := suppliers.NewService(supplierRepo)
	supplierHandler := suppliers.NewHandler(logger, supplierService, templates, csrfManager)

	saleRepo := sales.NewRepository(dbpool)
	saleService := sales.NewService(saleRepo, productService, auditLogger)
	saleHandler := sales.NewHandler(logger, saleService, productService, customerService, templates, csrfManager)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, productService)
	procurementHandler := procurement.NewHandler(logger, procurementService, productService, supplierService, templates, csrfManager)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(saleService, reportCache)
	reportHandler := reports.NewHandler(logger, reportService, templates, csrfManager)
	saleService.OnChange(func(ctx context.Context) {
		if err := reportService.Invalidate(ctx); err != nil {
			logger.Warn("invalidate report cache", slog.Any("error", err))
		}
	})

	inventoryHandler := inventoryhttp.NewHandler(logger, productService, templates, csrfManager)
	dashboardHandler := dashboard.NewHandler(logger, saleService, productService, templates, csrfManager)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		ProductsHandler:    productHandler,
		InventoryHandler:   inventoryHandler,
		CustomersHandler:   customerHandler,
		SuppliersHandler:   supplierHandler,
		SalesHandler:       saleHandler,
		ProcurementHandler: procurementHandler,
		ReportsHandler:     reportHandler,
		PharmacyHandler:    pharmacyHandler,
		JobHandler:         jobHandler,
		TenantMiddleware:   tenantMiddleware,
		Metrics:            metrics,
	})

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

// runJobsCLI handles `novapharm jobs <trigger|stats> [task]` for operators.
func runJobsCLI(ctx context.Context, cfg *app.Config, args []string) error {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	if len(args) == 0 {
		return errors.New("usage: novapharm jobs <trigger|stats> [task]")
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: novapharm jobs trigger <task>")
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", args[1], info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
}
