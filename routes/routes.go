package routes

import (
	"net/http"
	"time"

	"gutschein/handlers"
	"gutschein/middleware"
	"gutschein/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the provider callback endpoints. No rate
// limiting and no auth middleware: authenticity is decided inside the
// pipeline per provider.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhook/:provider", hb.ProviderWebhookHandler)
}

// RegisterVoucherRoutes registers public storefront endpoints.
func RegisterVoucherRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/vouchers")
	{
		api.Use(middleware.RateLimitMiddleware())
		api.POST("", hb.IssueVoucherHandler)
		api.GET("/:code", hb.GetVoucherHandler)
	}
}

// RegisterPaymentRoutes registers checkout endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/checkout")
	{
		api.Use(middleware.RateLimitMiddleware())
		api.POST("/:provider", hb.CreateCheckoutHandler)
	}
}

// RegisterMerchantRoutes registers the authenticated merchant area.
func RegisterMerchantRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/merchant")
	{
		api.Use(middleware.FirebaseAuthMiddleware())
		api.GET("/me", hb.GetMerchantHandler)
		api.PATCH("/me", hb.UpdateMerchantHandler)
		api.POST("/stripe/connect", hb.ConnectStripeHandler)
		api.GET("/vouchers", hb.ListMerchantVouchersHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for operator review.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/admin/login", middleware.RateLimitMiddleware(), hb.AdminLoginHandler)

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware())
		adminGroup.GET("/ledger/flagged", hb.ListFlaggedRecordsHandler)
		adminGroup.GET("/ledger/:provider/:id", hb.GetLedgerRecordHandler)
		adminGroup.POST("/vouchers/:code/redeem", hb.AdminRedeemVoucherHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		health := utils.GetHealthStatus()
		status := http.StatusOK
		if !health.Mongo || !health.Redis {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWebhookRoutes(r, hb)
	RegisterVoucherRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterMerchantRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
