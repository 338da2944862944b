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

	"skynet-vpn-store/internal/config"
	"skynet-vpn-store/internal/domain/ports/repository"
	pg "skynet-vpn-store/internal/infra/db/postgres"
	"skynet-vpn-store/internal/infra/logging"
	"skynet-vpn-store/internal/infra/metrics"
	"skynet-vpn-store/internal/infra/payment"
	red "skynet-vpn-store/internal/infra/redis"
	"skynet-vpn-store/internal/infra/sched"
	"skynet-vpn-store/internal/infra/storage"
	"skynet-vpn-store/internal/infra/web"
	"skynet-vpn-store/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional; catalog reads fall through to postgres without it) ----
	var cache red.RedisClient
	if cfg.Redis.URL != "" {
		cache, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer cache.Close()
	}

	// ---- Artifact store ----
	store, err := storage.NewS3ArtifactStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("artifact store")
	}

	// ---- Repositories ----
	profileRepo := pg.NewProfileRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)

	var products repository.ProductRepository = productRepo
	var plans repository.PlanRepository = planRepo
	if cache != nil {
		products = pg.NewProductRepoCacheDecorator(productRepo, cache, cfg.Redis.TTL)
		plans = pg.NewPlanRepoCacheDecorator(planRepo, cache, cfg.Redis.TTL)
	}

	// ---- Payment gateway ----
	gateway := payment.NewIntaSendGateway(cfg.Payment)

	// ---- Use cases ----
	accountUC := usecase.NewAccountUseCase(profileRepo)
	catalogUC := usecase.NewCatalogUseCase(products, plans)
	purchaseUC := usecase.NewPurchaseUseCase(purchaseRepo, plans, products, gateway, logger)
	fulfillmentUC := usecase.NewFulfillmentUseCase(purchaseRepo, store, logger)
	statsUC := usecase.NewStatsUseCase(purchaseRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.SessionSecret, cfg.Auth.SecureCookie && !cfg.Runtime.Dev, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	srv := web.NewServer(accountUC, catalogUC, purchaseUC, fulfillmentUC, statsUC, auth, cfg.Payment.Challenge, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry sweep ----
	sweep := sched.NewExpirySweep(cfg.Sweep.Interval, purchaseRepo, logger)
	go func() { _ = sweep.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
