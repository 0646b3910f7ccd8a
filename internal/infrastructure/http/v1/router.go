// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"librepos/internal/domain/product"
	"librepos/internal/domain/reports"
	"librepos/internal/domain/sale"
	"librepos/internal/infrastructure/http/v1/handlers"
	"librepos/internal/infrastructure/http/v1/middleware"
	"librepos/internal/infrastructure/storage/postgres"
	"librepos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	SaleService    *sale.Service
	ProductService *product.Service
	ReportsService *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")

	saleHandler := handlers.NewSaleHandler(base, cfg.SaleService)
	sales := api.Group("/sales")
	{
		sales.POST("", saleHandler.Create)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)

		// Sales are append-only; these routes exist to answer with an
		// explicit 405 instead of a misleading 404.
		sales.PUT("/:id", saleHandler.Update)
		sales.DELETE("/:id", saleHandler.Delete)
	}

	productHandler := handlers.NewProductHandler(base, cfg.ProductService)
	products := api.Group("/products")
	{
		products.POST("", productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
		products.GET("/:id/stock", productHandler.GetStock)
		products.POST("/:id/stock", productHandler.AdjustStock)
	}

	reportsHandler := handlers.NewReportsHandler(base, cfg.ReportsService)
	reportGroup := api.Group("/reports")
	{
		reportGroup.GET("/daily-total", reportsHandler.DailyTotal)
		reportGroup.GET("/sales-summary", reportsHandler.SalesSummary)
		reportGroup.GET("/inventory", reportsHandler.Inventory)
	}

	return router
}
