package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/vitalflex-backend/api/routes"
	"github.com/angelmondragon/vitalflex-backend/internal/payments"
	"github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/internal/syncer"
	"github.com/angelmondragon/vitalflex-backend/internal/videos"
	"github.com/angelmondragon/vitalflex-backend/pkg/config"
	"github.com/angelmondragon/vitalflex-backend/pkg/db"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	"github.com/angelmondragon/vitalflex-backend/pkg/metrics"
	"github.com/angelmondragon/vitalflex-backend/pkg/migrate"
	"github.com/angelmondragon/vitalflex-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	feed, err := syncer.NewRedisFeed(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create change feed", err)
		os.Exit(1)
	}

	repo := subscriptions.NewRepository(dbClient.DB())
	cache := subscriptions.NewCache()

	subsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:   repo,
		Cache:  cache,
		Feed:   feed,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:       repo,
		Tx:         dbClient,
		Cache:      cache,
		Feed:       feed,
		Settlement: payments.NewSimulatedSettlement(cfg.Settlement.Delay, cfg.Settlement.SuccessRate, nil),
		Metrics:    syncMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	videosService, err := videos.NewService(videos.ServiceParams{
		Repo: videos.NewRepository(dbClient.DB()),
		Subs: subsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create videos service", err)
		os.Exit(1)
	}

	engine, err := syncer.NewEngine(syncer.EngineParams{
		Repo:         repo,
		Cache:        cache,
		Bridge:       syncer.NewBridge(syncMetrics),
		Feed:         feed,
		Logger:       logg,
		Metrics:      syncMetrics,
		PollInterval: cfg.Sync.PollInterval,
		PushEnabled:  cfg.Sync.PushEnabled,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			RedisPinger:   redisClient,
			Subscriptions: subsService,
			Payments:      paymentsService,
			Videos:        videosService,
			Engine:        engine,
			Metrics:       registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down")

		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
		if err := engine.Close(); err != nil {
			logg.Error(ctx, "sync engine shutdown failed", err)
		}
	}
}
