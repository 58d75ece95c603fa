package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-payment-engine/internal/config"
	"course-payment-engine/internal/domain/ports/adapter"
	"course-payment-engine/internal/domain/ports/repository"
	gw "course-payment-engine/internal/infra/adapters/gateway"
	httpapi "course-payment-engine/internal/infra/api"
	pg "course-payment-engine/internal/infra/db/postgres"
	"course-payment-engine/internal/infra/logging"
	"course-payment-engine/internal/infra/metrics"
	red "course-payment-engine/internal/infra/redis"
	"course-payment-engine/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, noop gateway fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	payRepo := pg.NewPaymentRepo(pool)
	grantRepo := pg.NewEnrollmentRepo(pool)
	users := pg.NewUserDirectory(pool)

	var catalog repository.CatalogRepository = pg.NewCatalogRepo(pool)
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		catalog = pg.NewCatalogRepoCacheDecorator(catalog, redisClient, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Gateway.Name == "noop" {
		gateway = gw.NewNoopGateway()
		logger.Warn().Msg("using noop gateway; no real charges will be made")
	} else {
		gateway, err = gw.NewRestGateway(cfg.Gateway.Name, cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway")
		}
	}

	// ---- Use cases ----
	enroll := usecase.NewEnrollmentProcessor(catalog, grantRepo, payRepo, tm, logger)
	commands := usecase.NewPaymentCommandUseCase(payRepo, catalog, users, enroll, gateway, tm, cfg.Gateway.Timeout, logger)
	queries := usecase.NewPaymentQueryUseCase(payRepo, logger)
	dispatcher := usecase.NewDispatcher(commands, queries)

	// ---- HTTP ----
	srv := httpapi.NewServer(dispatcher, enroll, logger)
	if limiter != nil && cfg.API.RateLimit > 0 {
		srv.UseRateLimiter(limiter, cfg.API.RateLimit, cfg.API.RateWindow)
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
