package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/config"
	"github.com/clinicdesk/payments/internal/infrastructure/cache"
	"github.com/clinicdesk/payments/internal/infrastructure/events"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence/postgres"
	"github.com/clinicdesk/payments/internal/interfaces/rest/handlers"
	"github.com/clinicdesk/payments/internal/interfaces/rest/middleware"
	"github.com/clinicdesk/payments/internal/pricing"
	"github.com/clinicdesk/payments/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := cache.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := events.NewPublisher(cfg.Amqp.URL, cfg.Amqp.Exchange, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	categorizer, err := pricing.NewSlotCategorizer(cfg.Pricing.MorningCutoff, cfg.Pricing.EveningCutoff)
	if err != nil {
		logger.Error("invalid pricing cutoffs", "error", err)
		os.Exit(1)
	}

	paymentRepo := postgres.NewPaymentRepository(db)
	requestRepo := postgres.NewPaymentRequestRepository(db)
	eventLedger := postgres.NewEventLedgerRepository(db)
	billingRepo := postgres.NewBillingRepository(db)

	calculator := services.NewBalanceCalculator(paymentRepo, billingRepo, logger)
	balanceCache := cache.NewBalanceCache(redisClient, cfg.Redis.TTL)
	balances := services.NewCachedBalances(calculator, balanceCache, logger)

	recomputeWorker := worker.NewRecomputeWorker(balances, publisher, cfg.Worker.QueueSize, logger)

	processor := services.NewWebhookProcessor(
		paymentRepo,
		requestRepo,
		eventLedger,
		billingRepo,
		recomputeWorker,
		logger,
	)
	requestManager := services.NewRequestManager(requestRepo, billingRepo, logger)
	offlineRecorder := services.NewOfflineRecorder(paymentRepo, billingRepo, recomputeWorker, logger)

	h := handlers.NewHandlers(
		processor,
		requestManager,
		balances,
		offlineRecorder,
		categorizer,
		logger,
	)

	handler := http.Handler(h.Routes())
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	expirationWorker := worker.NewExpirationWorker(
		requestManager,
		cfg.Worker.ExpiryInterval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go recomputeWorker.Start(workerCtx)
	go expirationWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
