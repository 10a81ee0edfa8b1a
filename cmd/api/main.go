package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vivaflower/storefront-backend/api/controllers"
	"github.com/vivaflower/storefront-backend/api/routes"
	"github.com/vivaflower/storefront-backend/internal/cart"
	"github.com/vivaflower/storefront-backend/internal/guests"
	"github.com/vivaflower/storefront-backend/internal/inventory"
	"github.com/vivaflower/storefront-backend/internal/orders"
	"github.com/vivaflower/storefront-backend/internal/products"
	"github.com/vivaflower/storefront-backend/internal/sales"
	"github.com/vivaflower/storefront-backend/internal/stores"
	"github.com/vivaflower/storefront-backend/pkg/config"
	"github.com/vivaflower/storefront-backend/pkg/db"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/metrics"
	"github.com/vivaflower/storefront-backend/pkg/migrate"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/redis"
	"github.com/vivaflower/storefront-backend/pkg/square"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	reg := metrics.NewRegistry()
	gormDB := dbClient.DB()
	productRepo := products.NewRepository(gormDB)
	storeRepo := stores.NewRepository(gormDB)

	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient, productRepo, storeRepo, logg)
	requireResource(ctx, logg, "inventory service", err)

	salesService, err := sales.NewService(sales.NewRepository(gormDB))
	requireResource(ctx, logg, "sales service", err)

	orderDeps := orders.Dependencies{
		Repo:     orders.NewRepository(gormDB),
		Tx:       dbClient,
		Outbox:   outbox.NewService(outbox.NewRepository(gormDB), logg),
		Stock:    inventoryService,
		Sales:    salesService,
		Cart:     cart.NewItemRepository(gormDB),
		Guests:   guests.NewRepository(gormDB),
		Products: productRepo,
		Stores:   storeRepo,
		Metrics:  metrics.NewOrderMetrics(reg),
		Logger:   logg,
	}
	if cfg.Square.Enabled() {
		squareClient, err := square.NewClient(ctx, cfg.Square, logg)
		requireResource(ctx, logg, "square", err)
		orderDeps.Gateway = squareClient
	} else {
		logg.Warn(ctx, "square is not configured, e_wallet orders stay unpaid until reported")
	}
	ordersService, err := orders.NewService(orderDeps)
	requireResource(ctx, logg, "orders service", err)

	handler := routes.NewRouter(routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		Registry: reg,
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Orders:      ordersService,
		Inventory:   inventoryService,
		Sales:       salesService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
		logg.Info(logCtx, "api server stopped")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
