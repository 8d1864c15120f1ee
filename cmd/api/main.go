package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ateliermora/storefront-backend/api/routes"
	"github.com/ateliermora/storefront-backend/internal/invoices"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/internal/payments"
	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/db"
	"github.com/ateliermora/storefront-backend/pkg/logger"
	"github.com/ateliermora/storefront-backend/pkg/metrics"
	"github.com/ateliermora/storefront-backend/pkg/migrate"
	"github.com/ateliermora/storefront-backend/pkg/redis"
	"github.com/ateliermora/storefront-backend/pkg/storage"
	"github.com/ateliermora/storefront-backend/pkg/stripe"
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	store, err := storage.New(context.Background(), cfg.Storage, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap invoice storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing invoice storage", err)
		}
	}()

	invoiceMetrics := metrics.NewInvoiceMetrics(prometheus.DefaultRegisterer)

	ordersRepo := orders.NewRepository(dbClient.DB())
	invoicesRepo := invoices.NewRepository(dbClient.DB())

	generator, err := invoices.NewGenerator(
		invoicesRepo,
		ordersRepo,
		dbClient,
		store,
		invoices.NewPDFRenderer(cfg.Invoice.SellerName),
		redisClient,
		invoiceMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice generator", err)
		os.Exit(1)
	}

	dispatcher, err := invoices.NewDispatcher(generator, cfg.Invoice.Workers, cfg.Invoice.QueueDepth, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice dispatcher", err)
		os.Exit(1)
	}
	defer dispatcher.Stop()

	invoiceService, err := invoices.NewService(invoicesRepo, dbClient, dispatcher, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(ordersRepo, dbClient, invoiceService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	fetcher, err := payments.NewFetcher(stripeClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create confirmation fetcher", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Store:    store,
			Fetcher:  fetcher,
			Orders:   orderService,
			Invoices: invoiceService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
