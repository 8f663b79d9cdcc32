package routes

import (
	"net/http"
	"time"

	"coverly/handlers"
	"coverly/middleware"
	"coverly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterProviderRoutes registers provider registry, catalog, review, and
// earnings endpoints keyed by provider id.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/providers")
	{
		api.Use(middleware.IdentityMiddleware())
		api.POST("", hb.Provider.RegisterProviderHandler)
		api.GET("", hb.Provider.GetProvidersHandler)
		api.GET("/:id", hb.Provider.GetProviderByIDHandler)
		api.PATCH("/:id", hb.Provider.UpdateProviderHandler)
		api.GET("/:id/onboarding-link", hb.Provider.OnboardingLinkHandler)
		api.POST("/:id/onboarding/complete", hb.Provider.CompleteOnboardingHandler)

		api.POST("/:id/services", hb.Catalog.CreateServiceHandler)
		api.GET("/:id/services", hb.Catalog.ListProviderServicesHandler)

		api.GET("/:id/reviews", hb.Order.ListProviderReviewsHandler)
		api.GET("/:id/earnings-statement", hb.Statement.EarningsStatementHandler)
	}
}

// RegisterCatalogRoutes registers the public service catalog.
func RegisterCatalogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/services")
	{
		api.Use(middleware.IdentityMiddleware())
		api.GET("", hb.Catalog.ListServicesHandler)
		api.PATCH("/:id", hb.Catalog.UpdateServiceHandler)
	}
}

// RegisterOrderRoutes registers the order lifecycle endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/orders")
	{
		api.Use(middleware.IdentityMiddleware())
		api.POST("", hb.Order.PlaceOrderHandler)
		api.GET("", hb.Order.ListOrdersHandler)
		api.GET("/:id", hb.Order.GetOrderHandler)

		api.POST("/:id/claim", hb.Order.ClaimOrderHandler)
		api.POST("/:id/start", hb.Order.StartOrderHandler)
		api.POST("/:id/deliver", hb.Order.DeliverOrderHandler)
		api.POST("/:id/complete", hb.Order.CompleteOrderHandler)
		api.POST("/:id/cancel", hb.Order.CancelOrderHandler)

		api.GET("/:id/delivery", hb.Order.GetDeliveryHandler)
		api.GET("/:id/delivery/upload-url", hb.Order.DeliveryUploadURLHandler)
		api.POST("/:id/review", hb.Order.SubmitReviewHandler)

		api.POST("/:id/dispute", hb.Dispute.OpenDisputeHandler)
	}
}

// RegisterDisputeRoutes registers party-facing dispute reads plus the admin
// adjudication endpoint.
func RegisterDisputeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/disputes")
	{
		api.GET("", middleware.IdentityMiddleware(), hb.Dispute.ListDisputesHandler)
		api.GET("/:id/events", middleware.IdentityMiddleware(), hb.Dispute.DisputeEventsHandler)
		api.PATCH("/:id", middleware.AdminAuthMiddleware(), hb.Dispute.ResolveDisputeHandler)
	}
}

// RegisterAdminRoutes registers endpoints guarded by the admin API key.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/admin")
	{
		api.Use(middleware.AdminAuthMiddleware())
		api.GET("/providers", hb.Admin.AdminListProvidersHandler)
		api.GET("/providers/review-queue", hb.Admin.ReviewQueueHandler)
		api.POST("/providers/:id/review", hb.Admin.ReviewProviderHandler)
		api.GET("/disputes", hb.Dispute.AdminListDisputesHandler)
		api.GET("/disputes/:id/events", hb.Dispute.AdminDisputeEventsHandler)
		api.GET("/payout-ledger", hb.Statement.PayoutLedgerHandler)
	}
	r.POST("/jobs/sla-maintenance", middleware.AdminAuthMiddleware(), hb.Maintenance.RunSLAMaintenanceHandler)
}

// RegisterWebhookRoute registers the payment processor callback. No identity
// middleware: authentication is the payload signature.
func RegisterWebhookRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/payment-webhook", hb.Webhook.PaymentWebhookHandler)
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// periodic dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "x-auth-user-id", "x-admin-key", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterProviderRoutes(r, hb)
	RegisterCatalogRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterDisputeRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterWebhookRoute(r, hb)
	RegisterHealthRoute(r)
}
