package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gutschein/config"
	"gutschein/cron"
	"gutschein/database"
	ledgerRepoPkg "gutschein/database/repository/ledger"
	merchantRepoPkg "gutschein/database/repository/merchant"
	voucherRepoPkg "gutschein/database/repository/voucher"
	"gutschein/handlers"
	"gutschein/models"
	"gutschein/routes"
	"gutschein/services/merchant"
	"gutschein/services/notification"
	"gutschein/services/payment"
	"gutschein/services/reconcile"
	"gutschein/services/voucher"
	"gutschein/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	stripe "github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	voucherRepo := voucherRepoPkg.NewMongoVoucherRepo()
	ledgerRepo := ledgerRepoPkg.NewMongoLedgerRepo()
	merchantRepo := merchantRepoPkg.NewMongoMerchantRepo()

	// shared clients.
	cacheClient := utils.GetCacheClient()
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	stripeAPI := &stripeclient.API{}
	stripeAPI.Init(config.AppConfig.StripeKey, nil)
	mollieClient := payment.NewMollieClient(config.AppConfig.MollieBaseURL, config.AppConfig.MollieAPIKey)

	// services.
	notifier := notification.NewQueueNotificationService(asynqClient, logger)

	voucherService := &voucher.DefaultVoucherService{
		Repo:     voucherRepo,
		Cache:    cacheClient,
		Notifier: notifier,
		Logger:   logger,
	}

	checkoutService := &payment.DefaultCheckoutService{
		Vouchers:      voucherRepo,
		Stripe:        stripeAPI,
		Mollie:        mollieClient,
		PublicBaseURL: config.AppConfig.PublicBaseURL,
		Logger:        logger,
	}

	merchantService := &merchant.DefaultMerchantService{
		Repo:     merchantRepo,
		Checkout: checkoutService,
		Logger:   logger,
	}

	stateMachine := &reconcile.StateMachine{
		Vouchers:       voucherRepo,
		Ledger:         ledgerRepo,
		Notifier:       notifier,
		ToleranceCents: config.AppConfig.AmountToleranceCents,
		Logger:         logger,
	}

	reconcileService := &reconcile.DefaultReconcileService{
		Adapters: map[models.PaymentProvider]reconcile.ProviderAdapter{
			models.ProviderStripe: reconcile.NewStripeAdapter(
				config.AppConfig.StripeKey,
				config.AppConfig.StripeWebhookSecret,
				logger,
			),
			models.ProviderMollie: reconcile.NewMollieAdapter(mollieClient, logger),
		},
		Ledger:  ledgerRepo,
		Machine: stateMachine,
		Logger:  logger,
	}

	// handlers.
	webhookHandler := handlers.NewWebhookHandler(reconcileService)
	voucherHandler := handlers.NewVoucherHandler(voucherService)
	paymentHandler := handlers.NewPaymentHandler(checkoutService)
	merchantHandler := handlers.NewMerchantHandler(merchantService, voucherService)
	adminHandler := handlers.NewAdminHandler(ledgerRepo, voucherRepo)

	handlerBundle := &handlers.HandlerBundle{
		ProviderWebhookHandler: webhookHandler.HandleProviderWebhook,

		IssueVoucherHandler: voucherHandler.IssueVoucherHandler,
		GetVoucherHandler:   voucherHandler.GetVoucherHandler,

		CreateCheckoutHandler: paymentHandler.CreateCheckoutHandler,

		GetMerchantHandler:          merchantHandler.GetMerchantHandler,
		UpdateMerchantHandler:       merchantHandler.UpdateMerchantHandler,
		ConnectStripeHandler:        merchantHandler.ConnectStripeHandler,
		ListMerchantVouchersHandler: merchantHandler.ListMerchantVouchersHandler,

		AdminLoginHandler:         adminHandler.AdminLoginHandler,
		ListFlaggedRecordsHandler: adminHandler.ListFlaggedRecordsHandler,
		GetLedgerRecordHandler:    adminHandler.GetLedgerRecordHandler,
		AdminRedeemVoucherHandler: adminHandler.RedeemVoucherHandler,
	}

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(cacheClient, database.MongoClient)

	// background workers.
	mailer := notification.NewMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUser,
		config.AppConfig.SMTPPass,
		config.AppConfig.MailFrom,
	)
	cron.InitMailWorker(voucherRepo, mailer, cacheClient)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	sweeper := &cron.ReconciliationWorker{
		Ledger:     ledgerRepo,
		Reconciler: reconcileService,
		StuckAfter: time.Duration(config.AppConfig.SweepAfterMinutes) * time.Minute,
		Interval:   5 * time.Minute,
		Logger:     logger,
	}
	go sweeper.Run(workerCtx)

	// Start the HTTP server.
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

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
