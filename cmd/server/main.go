package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/iho/ilpnode/internal/adapter/btp"
	httpAdapter "github.com/iho/ilpnode/internal/adapter/http"
	"github.com/iho/ilpnode/internal/adapter/http/handler"
	"github.com/iho/ilpnode/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/ilpnode/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ilpnode/internal/adapter/repository/redis"
	"github.com/iho/ilpnode/internal/infrastructure/config"
	"github.com/iho/ilpnode/internal/infrastructure/logger"
	"github.com/iho/ilpnode/internal/infrastructure/metrics"
	"github.com/iho/ilpnode/internal/infrastructure/postgres"
	"github.com/iho/ilpnode/internal/infrastructure/redis"
	"github.com/iho/ilpnode/internal/infrastructure/relay"
	"github.com/iho/ilpnode/internal/infrastructure/settlement"
	"github.com/iho/ilpnode/internal/infrastructure/spsp"
	"github.com/iho/ilpnode/internal/infrastructure/worker"
	"github.com/iho/ilpnode/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers: zerolog for the HTTP surface, slog for the workers.
	zlog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zlog
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	serverSecret, err := hex.DecodeString(cfg.ServerSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("SERVER_SECRET must be hex encoded")
	}

	ctx := context.Background()

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Optional settlement archive
	var archive usecase.SettlementArchive
	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		archive = postgresRepo.NewSettlementRepository(pool)
		log.Info().Msg("settlement archive enabled")
	}

	// Initialize repositories
	accountRepo := redisRepo.NewAccountRepository(redisClient)
	balanceStore := redisRepo.NewBalanceStore(redisClient)
	settlementStore := redisRepo.NewSettlementStore(redisClient, cfg.IdempotencyTTL)
	outboxRepo := redisRepo.NewOutboxRepository(redisClient)
	routeStore := redisRepo.NewRouteStore(redisClient)
	rateStore := redisRepo.NewRateStore(redisClient)
	idGen := redisRepo.NewULIDGenerator()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, routeStore, idGen)
	balanceUC := usecase.NewBalanceUseCase(accountRepo, balanceStore)
	routingUC := usecase.NewRoutingUseCase(routeStore, accountRepo, cfg.DefaultRouteAccount)
	rateUC := usecase.NewRateUseCase(rateStore)
	if err := routingUC.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load routing table")
	}
	if err := rateUC.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load rate table")
	}

	engineClient := settlement.NewEngineClient(cfg.SettlementEngineTimeout, usecase.MaxEngineAttempts, slogger)
	settlementUC := usecase.NewSettlementUseCase(accountRepo, balanceStore, settlementStore, engineClient, archive, slogger)
	reconcilerUC := usecase.NewReconciliationUseCase(accountRepo, balanceStore, outboxRepo, slogger)

	relayClient := relay.NewClient(cfg.HTTPWriteTimeout, slogger)
	forwardingUC := usecase.NewForwardingUseCase(accountRepo, balanceUC, routingUC, rateUC, relayClient)

	// Settlement worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	settlementWorker := worker.NewSettlementWorker(worker.Config{
		Outbox:            outboxRepo,
		Coordinator:       settlementUC,
		Reconciler:        reconcilerUC,
		Metrics:           metrics.New(),
		Logger:            slogger,
		PollTimeout:       cfg.SettlementPollTimeout,
		ReconcileInterval: cfg.ReconcileInterval,
	})
	go func() {
		if err := settlementWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error().Err(err).Msg("settlement worker stopped")
		}
	}()

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC, balanceUC)
	ilpHandler := handler.NewILPHandler(accountUC, forwardingUC)
	settlementHandler := handler.NewSettlementHandler(settlementUC)
	routeHandler := handler.NewRouteHandler(routingUC)
	rateHandler := handler.NewRateHandler(rateUC)
	spspHandler := handler.NewSPSPHandler(accountUC, spsp.NewResolver(cfg.ILPAddress, serverSecret), cfg.DefaultSPSPAccount)
	healthHandler := handler.NewHealthHandler(redisClient)
	btpServer := btp.NewServer(accountUC, forwardingUC, zlog)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:    accountHandler,
		ILPHandler:        ilpHandler,
		SettlementHandler: settlementHandler,
		RouteHandler:      routeHandler,
		RateHandler:       rateHandler,
		SPSPHandler:       spspHandler,
		HealthHandler:     healthHandler,
		BTPServer:         btpServer,
		AdminToken:        cfg.AdminToken,
		Logger:            zlog,
		RateLimiter:       middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("ilp_address", cfg.ILPAddress).Msg("starting node")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down node...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("node stopped")
}
