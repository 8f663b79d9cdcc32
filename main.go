package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coverly/config"
	"coverly/cron"
	"coverly/database"
	catalogRepo "coverly/database/repository/catalog"
	deliveryRepo "coverly/database/repository/delivery"
	disputeRepo "coverly/database/repository/dispute"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	reviewRepo "coverly/database/repository/review"
	"coverly/handlers"
	"coverly/routes"
	"coverly/services/catalog"
	"coverly/services/dispute"
	"coverly/services/maintenance"
	"coverly/services/order"
	"coverly/services/payment"
	"coverly/services/provider"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	provRepo := providerRepo.NewMongoProviderRepo()
	svcRepo := catalogRepo.NewMongoServiceRepo()
	ordRepo := orderRepo.NewMongoOrderRepo()
	delRepo := deliveryRepo.NewMongoDeliveryRepo()
	revRepo := reviewRepo.NewMongoReviewRepo()
	dispRepo := disputeRepo.NewMongoDisputeRepo()

	// The gateway implementation is chosen once, here. Business logic only
	// ever sees the payment.Gateway interface.
	var gateway payment.Gateway
	if config.AppConfig.PaymentGateway == "memory" {
		gateway = payment.NewMemoryGateway(config.AppConfig.StripeWebhookSecret)
	} else {
		gateway = payment.NewStripeGateway(
			config.AppConfig.StripeWebhookSecret,
			config.AppConfig.OnboardingReturnURL,
			"usd",
			logger,
		)
	}

	// services.
	providerService := &provider.DefaultProviderService{
		Repo:    provRepo,
		Gateway: gateway,
		Logger:  logger,
	}
	catalogService := &catalog.DefaultCatalogService{
		Repo:      svcRepo,
		Providers: provRepo,
		Cache:     utils.GetCacheClient(),
		Logger:    logger,
	}
	orderService := &order.DefaultOrderService{
		Orders:        ordRepo,
		Deliveries:    delRepo,
		Reviews:       revRepo,
		Providers:     provRepo,
		Services:      svcRepo,
		Gateway:       gateway,
		CommissionBps: config.AppConfig.CommissionBps,
		Logger:        logger,
	}
	disputeService := &dispute.DefaultDisputeService{
		Disputes:  dispRepo,
		Orders:    ordRepo,
		Providers: provRepo,
		OrderSvc:  orderService,
		Gateway:   gateway,
		Logger:    logger,
	}
	sweeper := &maintenance.Sweeper{
		Orders:            ordRepo,
		Providers:         provRepo,
		OrderSvc:          orderService,
		DisputeSvc:        disputeService,
		AutoCompleteAfter: time.Duration(config.AppConfig.AutoCompleteDays) * 24 * time.Hour,
		Logger:            logger,
	}

	handlerBundle := &handlers.HandlerBundle{
		Provider:    handlers.NewProviderHandler(providerService),
		Admin:       handlers.NewAdminHandler(providerService),
		Catalog:     handlers.NewCatalogHandler(catalogService),
		Order:       handlers.NewOrderHandler(orderService),
		Dispute:     handlers.NewDisputeHandler(disputeService),
		Statement:   handlers.NewStatementHandler(ordRepo, provRepo),
		Webhook:     handlers.NewWebhookHandler(gateway, orderService, providerService),
		Maintenance: handlers.NewMaintenanceHandler(sweeper),
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Periodic SLA maintenance under asynq.
	cron.InitMaintenanceWorker(sweeper)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
