package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vivaflower/storefront-backend/api/controllers"
	inventorycontrollers "github.com/vivaflower/storefront-backend/api/controllers/inventory"
	ordercontrollers "github.com/vivaflower/storefront-backend/api/controllers/orders"
	paymentcontrollers "github.com/vivaflower/storefront-backend/api/controllers/payments"
	salescontrollers "github.com/vivaflower/storefront-backend/api/controllers/sales"
	"github.com/vivaflower/storefront-backend/api/middleware"
	"github.com/vivaflower/storefront-backend/internal/inventory"
	"github.com/vivaflower/storefront-backend/internal/orders"
	"github.com/vivaflower/storefront-backend/internal/sales"
	"github.com/vivaflower/storefront-backend/pkg/config"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/metrics"
	"github.com/vivaflower/storefront-backend/pkg/redis"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies is everything the HTTP surface needs. Idempotency and
// RateLimiter may be nil, which disables the matching middleware.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Registry    *prometheus.Registry
	Readiness   map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter rateLimiter
	Orders      orders.Service
	Inventory   inventory.Service
	Sales       sales.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if deps.Registry != nil {
		r.Use(metrics.NewHTTPMetrics(deps.Registry).Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	orderCreates := middleware.RateLimitPolicy{Name: "order-create", Limit: cfg.RateLimit.OrderCreates, Window: cfg.RateLimit.Window}
	paymentReports := middleware.RateLimitPolicy{Name: "payment-callback", Limit: cfg.RateLimit.PaymentReports, Window: cfg.RateLimit.Window}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.With(limit(paymentReports, deps.RateLimiter, logg)).Post("/callback", paymentcontrollers.Callback(deps.Orders, cfg.Square, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleGuest))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.With(limit(orderCreates, deps.RateLimiter, logg)).Post("/", ordercontrollers.Create(deps.Orders, logg))
		r.Put("/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		r.Get("/", ordercontrollers.List(deps.Orders, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Put("/payment-status", ordercontrollers.UpdatePaymentStatus(deps.Orders, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/incoming", func(r chi.Router) {
				r.Post("/", inventorycontrollers.AddIncoming(deps.Inventory, logg))
				r.Get("/", inventorycontrollers.ListIncoming(deps.Inventory, logg))
				r.Get("/{incomingId}", inventorycontrollers.GetIncoming(deps.Inventory, logg))
				r.Delete("/{incomingId}", inventorycontrollers.DeleteIncoming(deps.Inventory, logg))
			})
			r.Get("/expenditure", inventorycontrollers.Expenditure(deps.Inventory, logg))
			r.Get("/stock", inventorycontrollers.Stock(deps.Inventory, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", salescontrollers.List(deps.Sales, logg))
			r.Get("/revenue", salescontrollers.Revenue(deps.Sales, logg))
			r.Get("/products", salescontrollers.SoldProducts(deps.Sales, logg))
		})
	})

	return r
}

func limit(policy middleware.RateLimitPolicy, store rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(policy, store, logg)
}
