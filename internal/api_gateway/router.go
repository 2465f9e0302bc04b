package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/api_gateway/handler"
	"github.com/tienda-register-ledger/internal/api_gateway/middleware"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

const healthPath = "/health"

// routes groups the handlers the router mounts; archive may be nil when no
// archive store is configured
type routes struct {
	register  *handler.RegisterHandler
	directory *handler.DirectoryHandler
	archive   *handler.ArchiveHandler
	metrics   *metrics.Metrics
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, metricsPath string, h routes) {
	r.Use(middleware.Recovery(logger, h.metrics))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, h.metrics, metricsPath, healthPath))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.GET("/balances", h.register.Balances)
		v1.GET("/settings", h.register.Settings)
		v1.POST("/investment/adjustments", h.register.AdjustInvestment)

		ledgerRoutes := v1.Group("/ledger")
		{
			ledgerRoutes.GET("", h.register.Ledger)
			ledgerRoutes.GET("/verify", h.register.Verify)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", h.register.SettleSale)
			sales.GET("", h.register.Sales)
		}

		purchases := v1.Group("/purchases")
		{
			purchases.POST("", h.register.SettlePurchase)
			purchases.GET("", h.register.Purchases)
		}

		audits := v1.Group("/audits")
		{
			audits.GET("/expected", h.register.ExpectedTotals)
			audits.POST("", h.register.CloseRegister)
			audits.GET("", h.register.Audits)
		}

		payrolls := v1.Group("/payrolls")
		{
			payrolls.POST("", h.register.RunPayroll)
			payrolls.GET("", h.register.Payrolls)
		}

		v1.GET("/products", h.directory.Products)

		categories := v1.Group("/categories")
		{
			categories.GET("", h.directory.Categories)
			categories.POST("", h.directory.SaveCategory)
			categories.PUT("/:id", h.directory.SaveCategory)
		}

		workers := v1.Group("/workers")
		{
			workers.GET("", h.directory.Workers)
			workers.POST("", h.directory.SaveWorker)
			workers.PUT("/:id", h.directory.SaveWorker)
		}

		debtors := v1.Group("/debtors")
		{
			debtors.GET("", h.directory.Debtors)
			debtors.POST("", h.directory.SaveDebtor)
			debtors.PUT("/:id", h.directory.SaveDebtor)
		}

		debts := v1.Group("/debts")
		{
			debts.GET("", h.directory.Debts)
			debts.POST("/:id/payments", h.directory.RecordDebtPayment)
		}

		if h.archive != nil {
			archive := v1.Group("/archive")
			{
				archive.GET("/status", h.archive.Status)
				archive.GET("/entries", h.archive.List)
				archive.GET("/entries/:id", h.archive.GetByID)
			}
		}
	}

	if h.metrics != nil && metricsPath != "" {
		r.GET(metricsPath, gin.WrapH(h.metrics.Handler()))
	}

	// Health check endpoint for monitoring
	r.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
