package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vivaflower/storefront-backend/internal/analytics"
	"github.com/vivaflower/storefront-backend/internal/analytics/writer"
	"github.com/vivaflower/storefront-backend/internal/consumers"
	"github.com/vivaflower/storefront-backend/internal/guests"
	"github.com/vivaflower/storefront-backend/internal/notifications"
	"github.com/vivaflower/storefront-backend/pkg/bigquery"
	"github.com/vivaflower/storefront-backend/pkg/config"
	"github.com/vivaflower/storefront-backend/pkg/db"
	"github.com/vivaflower/storefront-backend/pkg/email"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox/idempotency"
	"github.com/vivaflower/storefront-backend/pkg/outbox/registry"
	"github.com/vivaflower/storefront-backend/pkg/pubsub"
	"github.com/vivaflower/storefront-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, true, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Repo:         notifications.NewRepository(dbClient.DB()),
		Guests:       guests.NewRepository(dbClient.DB()),
		Mailer:       email.NewSender(cfg.Email, logg),
		Decoders:     registry.NewOrderDecoderRegistry(),
		Idempotency:  manager,
		AdminAddress: cfg.Email.AdminAddress,
		Logger:       logg,
	})
	requireResource(ctx, logg, "notification consumer", err)

	salesWriter, err := writer.New(bqClient, writer.Config{SalesTable: bqClient.SalesTable()})
	requireResource(ctx, logg, "sales writer", err)

	analyticsConsumer, err := analytics.NewConsumer(salesWriter, manager, logg)
	requireResource(ctx, logg, "analytics consumer", err)

	notificationRunner, err := consumers.NewRunner("notifications", pubsubClient.OrdersSubscription(), notificationConsumer, logg)
	requireResource(ctx, logg, "notifications subscription", err)

	analyticsRunner, err := consumers.NewRunner("analytics", pubsubClient.AnalyticsSubscription(), analyticsConsumer, logg)
	requireResource(ctx, logg, "analytics subscription", err)

	service, err := NewService(ServiceParams{
		Logger: logg,
		Readiness: map[string]pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   pubsubClient,
			"bigquery": bqClient,
		},
		Consumers: []*consumers.Runner{notificationRunner, analyticsRunner},
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "starting worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
