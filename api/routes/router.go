package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ateliermora/storefront-backend/api/controllers"
	"github.com/ateliermora/storefront-backend/api/middleware"
	"github.com/ateliermora/storefront-backend/internal/invoices"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/internal/payments"
	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/db"
	"github.com/ateliermora/storefront-backend/pkg/logger"
	pkgredis "github.com/ateliermora/storefront-backend/pkg/redis"
	"github.com/ateliermora/storefront-backend/pkg/storage"
)

// Dependencies carries everything the HTTP surface needs. Idempotency may
// be left nil to fall back to the Redis client.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *pkgredis.Client
	Idempotency pkgredis.IdempotencyStore
	Store       storage.Store
	Fetcher     payments.Fetcher
	Orders      orders.Service
	Invoices    invoices.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		checks := []controllers.HealthCheck{
			{Name: "database", Pinger: deps.DB},
			{Name: "storage", Pinger: deps.Store},
		}
		if deps.Redis != nil {
			checks = append(checks, controllers.HealthCheck{Name: "redis", Pinger: deps.Redis})
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	r.Get("/invoices/{fileName}", controllers.InvoiceFile(deps.Store, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/checkout/success", controllers.CheckoutSuccess(deps.Fetcher, deps.Orders, deps.Invoices, logg))
		r.Get("/invoice-status", controllers.InvoiceStatus(deps.Invoices, logg))
		r.Get("/users/{userId}/orders", controllers.UserOrders(deps.Orders, logg))
	})

	idemStore := deps.Idempotency
	if idemStore == nil && deps.Redis != nil {
		idemStore = deps.Redis
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Admin, logg))
		if idemStore != nil {
			r.Use(middleware.Idempotency(idemStore, logg))
		}
		r.Post("/orders/{userId}/consolidate", controllers.AdminConsolidateOrders(deps.Orders, logg))
		r.Post("/invoices/{orderId}/retry", controllers.AdminRetryInvoice(deps.Invoices, logg))
	})

	return r
}
