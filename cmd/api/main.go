package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-bff/api/controllers"
	assistantcontrollers "github.com/angelmondragon/storefront-bff/api/controllers/assistant"
	"github.com/angelmondragon/storefront-bff/api/routes"
	"github.com/angelmondragon/storefront-bff/internal/assistant"
	"github.com/angelmondragon/storefront-bff/internal/cart"
	"github.com/angelmondragon/storefront-bff/internal/checkout"
	"github.com/angelmondragon/storefront-bff/internal/orders"
	"github.com/angelmondragon/storefront-bff/internal/receipts"
	"github.com/angelmondragon/storefront-bff/internal/shops"
	"github.com/angelmondragon/storefront-bff/internal/variants"
	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/config"
	"github.com/angelmondragon/storefront-bff/pkg/db"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
	"github.com/angelmondragon/storefront-bff/pkg/migrate"
	"github.com/angelmondragon/storefront-bff/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	backendMetrics := metrics.NewBackendMetrics(registry)

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithMetrics(backendMetrics),
	)
	requireService(ctx, logg, "backend client", err)

	shopDirectory, err := shops.NewDirectory(backendClient, redisClient, cfg.Session.ShopNameTTL, cfg.Session.ShopLookupsN, logg)
	requireService(ctx, logg, "shop directory", err)

	variantService, err := variants.NewService(backendClient, logg)
	requireService(ctx, logg, "variant service", err)

	sessionStore, err := cart.NewRedisSessionStore(redisClient, cfg.Session.CartTTL)
	requireService(ctx, logg, "cart session store", err)

	itemLocker, err := cart.NewRedisItemLocker(redisClient, cfg.Session.ItemLockTTL)
	requireService(ctx, logg, "cart item locker", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Backend:  backendClient,
		Store:    sessionStore,
		Locker:   itemLocker,
		Shops:    shopDirectory,
		Variants: variantService,
		Logger:   logg,
		Metrics:  metrics.NewCartMetrics(registry),
	})
	requireService(ctx, logg, "cart service", err)

	receiptService, err := receipts.NewService(receipts.NewRepository(dbClient.DB()), time.Now)
	requireService(ctx, logg, "receipt service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:           cartService,
		Backend:        backendClient,
		Receipts:       receiptService,
		Shops:          shopDirectory,
		PaymentMethods: cfg.Checkout.PaymentMethods,
		Logger:         logg,
	})
	requireService(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(backendClient, shopDirectory)
	requireService(ctx, logg, "orders service", err)

	var assistantSender assistantcontrollers.Sender
	if cfg.Assistant.Enabled() {
		assistantClient, err := assistant.NewClient(cfg.Assistant.URL,
			assistant.WithTimeout(cfg.Assistant.Timeout),
			assistant.WithMetrics(backendMetrics),
		)
		requireService(ctx, logg, "assistant client", err)
		assistantSender = assistantClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"assistant": cfg.Assistant.Enabled(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Idempotency: redisClient,
			Pingers:     map[string]controllers.Pinger{"database": dbClient, "redis": redisClient},
			Cart:        cartService,
			Variants:    variantService,
			Checkout:    checkoutService,
			Receipts:    receiptService,
			Orders:      ordersService,
			Assistant:   assistantSender,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "service", name), "failed to build service", err)
	os.Exit(1)
}
