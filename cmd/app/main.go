// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms-access-billing/internal/config"
	"lms-access-billing/internal/domain/ports/adapter"
	pg "lms-access-billing/internal/infra/db/postgres"
	httpapi "lms-access-billing/internal/infra/http"
	"lms-access-billing/internal/infra/logging"
	"lms-access-billing/internal/infra/metrics"
	"lms-access-billing/internal/infra/notify"
	"lms-access-billing/internal/infra/payment"
	red "lms-access-billing/internal/infra/redis"
	"lms-access-billing/internal/infra/sched"
	"lms-access-billing/internal/infra/worker"
	"lms-access-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	var (
		cache   adapter.WindowCache
		limiter *red.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cache = red.NewAccessCache(redisClient, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis disabled, window queries hit the database")
	}

	// ---- Repositories ----
	recordRepo := pg.NewAccessRecordRepo(pool)
	recurringRepo := pg.NewRecurringRepo(pool)
	attemptRepo := pg.NewChargeAttemptRepo(pool)
	attemptLogRepo := pg.NewChargeAttemptLogRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	instrumentRepo := pg.NewInstrumentRepo(pool)
	directoryRepo := pg.NewDirectoryRepo(pool)
	deadLetterRepo := pg.NewDeadLetterRepo(pool)

	// ---- Notifications ----
	var dispatcher adapter.NotificationDispatcher = notify.NoopDispatcher{}
	if cfg.Notify.WebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.Notify.WebhookURL, logger)
	}

	// ---- Use cases ----
	accessUC := usecase.NewAccessUseCase(tm, recordRepo, cache, dispatcher, logger)
	windowUC := usecase.NewWindowUseCase(recordRepo, recurringRepo, cache, logger)

	checkoutUC := usecase.NewCheckoutUseCase(
		tm, directoryRepo, recordRepo, recurringRepo, paymentRepo, instrumentRepo,
		accessUC, cache, dispatcher,
		cfg.Shop.PromoShopID, cfg.Shop.PromoLifetimeDays, cfg.Billing.DefaultLifetimeDays, logger,
	)
	ingest := usecase.NewDeadLetterIngest(checkoutUC, deadLetterRepo, logger)

	// ---- Recurring billing ----
	var recurUC usecase.RecurringUseCase
	if cfg.Tinkoff.Enabled {
		gateway := payment.NewTinkoffGateway(cfg.Tinkoff)
		processor := usecase.NewChargeProcessor(gateway, paymentRepo, attemptRepo, recurringRepo, instrumentRepo, logger)
		recurUC = usecase.NewRecurringUseCase(
			tm, recurringRepo, attemptRepo, attemptLogRepo, paymentRepo, instrumentRepo,
			directoryRepo, processor, accessUC, cache, dispatcher, logger,
		)

		wpool := worker.NewPool(cfg.Billing.Workers, logger)
		wpool.Start(ctx)
		defer wpool.Stop()

		scheduler := sched.NewChargeScheduler(
			cfg.Billing.ChargeInterval, cfg.Billing.ChargeRatePerMin, cfg.Billing.DueBatchLimit,
			recurringRepo, recurUC, wpool, limiter, logger,
		)
		go func() { _ = scheduler.Run(ctx) }()
	} else {
		logger.Warn().Msg("tinkoff disabled, recurring charges are not scheduled")
		recurUC = usecase.NewRecurringUseCase(
			tm, recurringRepo, attemptRepo, attemptLogRepo, paymentRepo, instrumentRepo,
			directoryRepo, nil, accessUC, cache, dispatcher, logger,
		)
	}

	// ---- HTTP ----
	srv := httpapi.NewServer(cfg, ingest, windowUC, recurUC, accessUC, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
