package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roomly-app/push-backend/api/routes"
	"github.com/roomly-app/push-backend/internal/delivery"
	"github.com/roomly-app/push-backend/internal/dispatch"
	"github.com/roomly-app/push-backend/internal/notify"
	"github.com/roomly-app/push-backend/internal/timezone"
	"github.com/roomly-app/push-backend/internal/tokens"
	"github.com/roomly-app/push-backend/pkg/config"
	"github.com/roomly-app/push-backend/pkg/db"
	"github.com/roomly-app/push-backend/pkg/expo"
	"github.com/roomly-app/push-backend/pkg/logger"
	"github.com/roomly-app/push-backend/pkg/metrics"
	"github.com/roomly-app/push-backend/pkg/migrate"
	"github.com/roomly-app/push-backend/pkg/pubsub"
	"github.com/roomly-app/push-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	tokensRepo := tokens.NewRepository(dbClient.DB())
	deliveryRepo := delivery.NewRepository(dbClient.DB())
	notifyRepo := notify.NewRepository(dbClient.DB())
	timezoneRepo := timezone.NewRepository(dbClient.DB())

	tokensService, err := tokens.NewService(tokens.ServiceParams{Repo: tokensRepo, Logg: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create tokens service", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(dispatch.ServiceParams{
		Tokens:   tokensRepo,
		Delivery: deliveryRepo,
		Sender:   expo.NewClient(cfg.Expo, logg),
		Metrics:  dispatchMetrics,
		Logg:     logg,
		Cfg:      cfg.Dispatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	notifyPublisher, err := notify.NewGCPPublisher(pubsubClient.NotificationPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create notification publisher", err)
		os.Exit(1)
	}

	notifyService, err := notify.NewService(notify.ServiceParams{
		Repo:      notifyRepo,
		Publisher: notifyPublisher,
		Logg:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	timezoneService, err := timezone.NewService(timezone.ServiceParams{Repo: timezoneRepo, Logg: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create timezone service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			dispatchService,
			tokensService,
			notifyService,
			timezoneService,
			deliveryRepo,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
