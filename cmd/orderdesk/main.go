package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orderdesk/orderdesk/internal/app"
	"github.com/orderdesk/orderdesk/internal/inventory"
	"github.com/orderdesk/orderdesk/internal/masterdata/customers"
	"github.com/orderdesk/orderdesk/internal/masterdata/products"
	"github.com/orderdesk/orderdesk/internal/masterdata/suppliers"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/platform/cache"
	"github.com/orderdesk/orderdesk/internal/platform/db"
	"github.com/orderdesk/orderdesk/internal/replenish"
	"github.com/orderdesk/orderdesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, low stock cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	policy := db.RetryPolicy{MaxAttempts: cfg.TxMaxRetries, Backoff: cfg.TxRetryBackoff}

	productService := products.NewService(products.NewRepository(pool))
	supplierService := suppliers.NewService(suppliers.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))

	inventoryService := inventory.NewService(inventory.NewRepository(pool, policy))
	orderService := orders.NewService(orders.NewRepository(pool, policy), customerService)
	replenishService := replenish.NewService(
		replenish.NewRepository(pool),
		replenish.NewCache(redisClient, cfg.LowStockCacheTTL),
	)

	var jobsHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		jobsHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ProductHandler:   products.NewHandler(logger, productService, inventoryService),
		SupplierHandler:  suppliers.NewHandler(logger, supplierService),
		CustomerHandler:  customers.NewHandler(logger, customerService),
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		OrderHandler:     orders.NewHandler(logger, orderService, productService, customerService),
		ReplenishHandler: replenish.NewHandler(logger, replenishService),
		JobsHandler:      jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
