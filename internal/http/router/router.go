package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/config"
	"github.com/itqan-erp/procurement-api/internal/database"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/http/handler"
	"github.com/itqan-erp/procurement-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/itqan-erp/procurement-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                    *config.Config
	logger                 *zap.Logger
	db                     *gorm.DB
	authMiddleware         *auth.Middleware
	rateLimiter            *middleware.RateLimiter
	authHandler            *handler.AuthHandler
	userHandler            *handler.UserHandler
	supplierHandler        *handler.SupplierHandler
	itemHandler            *handler.ItemHandler
	projectHandler         *handler.ProjectHandler
	materialRequestHandler *handler.MaterialRequestHandler
	rfqHandler             *handler.RFQHandler
	purchaseOrderHandler   *handler.PurchaseOrderHandler
	invoiceHandler         *handler.InvoiceHandler
	settingsHandler        *handler.SettingsHandler
	auditHandler           *handler.AuditHandler
	advisoryHandler        *handler.AdvisoryHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	supplierHandler *handler.SupplierHandler,
	itemHandler *handler.ItemHandler,
	projectHandler *handler.ProjectHandler,
	materialRequestHandler *handler.MaterialRequestHandler,
	rfqHandler *handler.RFQHandler,
	purchaseOrderHandler *handler.PurchaseOrderHandler,
	invoiceHandler *handler.InvoiceHandler,
	settingsHandler *handler.SettingsHandler,
	auditHandler *handler.AuditHandler,
	advisoryHandler *handler.AdvisoryHandler,
) *Router {
	return &Router{
		cfg:                    cfg,
		logger:                 logger,
		db:                     db,
		authMiddleware:         authMiddleware,
		rateLimiter:            rateLimiter,
		authHandler:            authHandler,
		userHandler:            userHandler,
		supplierHandler:        supplierHandler,
		itemHandler:            itemHandler,
		projectHandler:         projectHandler,
		materialRequestHandler: materialRequestHandler,
		rfqHandler:             rfqHandler,
		purchaseOrderHandler:   purchaseOrderHandler,
		invoiceHandler:         invoiceHandler,
		settingsHandler:        settingsHandler,
		auditHandler:           auditHandler,
		advisoryHandler:        advisoryHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)

			// Users (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Get("/", rt.userHandler.List)
				r.Post("/", rt.userHandler.Create)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Put("/{id}", rt.userHandler.Update)
				r.Get("/{id}/audit", rt.auditHandler.ListByUser)
			})

			// Suppliers
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", rt.supplierHandler.List)
				r.Post("/", rt.supplierHandler.Create)
				r.Get("/{id}", rt.supplierHandler.GetByID)
				r.Put("/{id}", rt.supplierHandler.Update)
				r.Delete("/{id}", rt.supplierHandler.Delete)
			})

			// Items
			r.Route("/items", func(r chi.Router) {
				r.Get("/", rt.itemHandler.List)
				r.Post("/", rt.itemHandler.Create)
				r.Get("/{id}", rt.itemHandler.GetByID)
				r.Put("/{id}", rt.itemHandler.Update)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Put("/{id}", rt.projectHandler.Update)
			})

			// Material requests
			r.Route("/material-requests", func(r chi.Router) {
				r.Get("/", rt.materialRequestHandler.List)
				r.Post("/", rt.materialRequestHandler.Create)
				r.Get("/{id}", rt.materialRequestHandler.GetByID)
				r.Post("/{id}/review", rt.materialRequestHandler.Review)
			})

			// RFQs and quotations
			r.Route("/rfqs", func(r chi.Router) {
				r.Get("/", rt.rfqHandler.List)
				r.Post("/", rt.rfqHandler.Open)
				r.Get("/{id}", rt.rfqHandler.GetByID)
				r.Post("/{id}/quotations", rt.rfqHandler.RecordQuotation)
				r.Post("/{id}/select/{quotationId}", rt.rfqHandler.SelectWinner)
			})
			r.Post("/quotations", rt.rfqHandler.CreateQuotation)

			// Purchase orders
			r.Route("/purchase-orders", func(r chi.Router) {
				r.Get("/", rt.purchaseOrderHandler.List)
				r.Post("/", rt.purchaseOrderHandler.Create)
				r.Get("/{id}", rt.purchaseOrderHandler.GetByID)
				r.Post("/{id}/approve", rt.purchaseOrderHandler.Approve)
				r.Post("/{id}/send", rt.purchaseOrderHandler.Send)
				r.Post("/{id}/cancel", rt.purchaseOrderHandler.Cancel)
				r.Get("/{id}/receipts", rt.purchaseOrderHandler.ListReceipts)
				r.Post("/{id}/receipts", rt.purchaseOrderHandler.RecordReceipt)
			})

			// Invoices
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", rt.invoiceHandler.List)
				r.Post("/", rt.invoiceHandler.Post)
				r.Get("/{id}", rt.invoiceHandler.GetByID)
				r.Post("/{id}/rematch", rt.invoiceHandler.Rematch)
			})

			// Advisory analysis
			r.Post("/ai/analyze", rt.advisoryHandler.Analyze)

			// System settings (admin and general manager)
			r.Route("/settings", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleGeneralManager))
				r.Get("/", rt.settingsHandler.Get)
				r.Put("/", rt.settingsHandler.Update)
			})

			// Audit logs (admin only)
			r.Route("/audit", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Get("/", rt.auditHandler.List)
			})
		})
	})

	return r
}
