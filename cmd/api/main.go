package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itqan-erp/procurement-api/docs"
	"github.com/itqan-erp/procurement-api/internal/advisory"
	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/config"
	"github.com/itqan-erp/procurement-api/internal/database"
	"github.com/itqan-erp/procurement-api/internal/http/handler"
	"github.com/itqan-erp/procurement-api/internal/http/middleware"
	"github.com/itqan-erp/procurement-api/internal/http/router"
	"github.com/itqan-erp/procurement-api/internal/jobs"
	"github.com/itqan-erp/procurement-api/internal/logger"
	"github.com/itqan-erp/procurement-api/internal/policy"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// @title Itqan Procurement API
// @version 1.0
// @description Procurement lifecycle API for material requests, RFQs, purchase orders, goods receipts and invoice matching
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@itqan-erp.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch cfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "procurement-staging.itqan-erp.com"
	case "production":
		docs.SwaggerInfo.Host = "api.itqan-erp.com"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize advisory client (optional - the API falls back to a
	// static analysis message when it is not configured)
	advisoryClient := advisory.NewClient(&cfg.Advisory, log)
	if advisoryClient.IsEnabled() {
		log.Info("Advisory client configured", zap.String("model", cfg.Advisory.Model))
	} else {
		log.Info("Advisory client not configured, analysis falls back to static text")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	itemRepo := repository.NewItemRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	requestRepo := repository.NewMaterialRequestRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	quoteRepo := repository.NewQuotationRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Token manager and auth middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize services
	matcher := policy.NewMatcher(cfg.Procurement.MatchTolerance)
	authService := service.NewAuthService(userRepo, auditLogRepo, authMiddleware.Tokens(), log)
	userService := service.NewUserService(userRepo, log)
	supplierService := service.NewSupplierService(supplierRepo, log)
	itemService := service.NewItemService(itemRepo, log)
	projectService := service.NewProjectService(projectRepo, itemRepo, log)
	procurementService := service.NewProcurementService(
		db,
		requestRepo,
		rfqRepo,
		quoteRepo,
		orderRepo,
		receiptRepo,
		invoiceRepo,
		projectRepo,
		itemRepo,
		userRepo,
		auditLogRepo,
		matcher,
		cfg.Procurement.Currency,
		log,
	)
	settingsService := service.NewSettingsService(settingsRepo, auditLogRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	advisoryService := service.NewAdvisoryService(advisoryClient, cfg.Advisory.FallbackText, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(userService, log)
	supplierHandler := handler.NewSupplierHandler(supplierService, log)
	itemHandler := handler.NewItemHandler(itemService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	materialRequestHandler := handler.NewMaterialRequestHandler(procurementService, log)
	rfqHandler := handler.NewRFQHandler(procurementService, log)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(procurementService, log)
	invoiceHandler := handler.NewInvoiceHandler(procurementService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	auditHandler := handler.NewAuditHandler(auditLogService, log)
	advisoryHandler := handler.NewAdvisoryHandler(advisoryService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		userHandler,
		supplierHandler,
		itemHandler,
		projectHandler,
		materialRequestHandler,
		rfqHandler,
		purchaseOrderHandler,
		invoiceHandler,
		settingsHandler,
		auditHandler,
		advisoryHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.RFQExpiryEnabled {
		scheduler = jobs.NewScheduler(log)

		// Close any RFQs that expired while the API was down, then sweep
		// on the configured schedule
		if err := jobs.RegisterRFQExpiryJob(
			scheduler,
			procurementService,
			log,
			cfg.Jobs.RFQExpirySchedule,
			true,
		); err != nil {
			log.Error("Failed to register RFQ expiry job", zap.Error(err))
		}

		if err := jobs.RegisterAuditPurgeJob(
			scheduler,
			auditLogService,
			cfg.Jobs.AuditRetentionDays,
			log,
		); err != nil {
			log.Error("Failed to register audit purge job", zap.Error(err))
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.String("rfq_expiry_cron", cfg.Jobs.RFQExpirySchedule),
			zap.Int("audit_retention_days", cfg.Jobs.AuditRetentionDays),
		)
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
