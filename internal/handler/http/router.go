package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/pkg/health"
	"github.com/shopkart/shopkart/pkg/middleware"
)

// RouterConfig carries everything the router needs beyond the handlers.
type RouterConfig struct {
	Logger         *slog.Logger
	Health         *health.Handler
	TokenValidator middleware.TokenValidator

	// WebhookRPS and WebhookBurst rate-limit the unauthenticated
	// payment webhook per client IP.
	WebhookRPS   int
	WebhookBurst int

	ServiceName string
}

// Handlers groups the API handlers mounted by the router.
type Handlers struct {
	Users    *UserHandler
	Products *ProductHandler
	Carts    *CartHandler
	Orders   *OrderHandler
	Payments *PaymentHandler
}

// NewRouter assembles the full HTTP surface: operational endpoints at
// the root and the API under /api.
func NewRouter(cfg RouterConfig, h Handlers) chi.Router {
	if cfg.WebhookRPS <= 0 {
		cfg.WebhookRPS = 10
	}
	if cfg.WebhookBurst <= 0 {
		cfg.WebhookBurst = 20
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "shopkart"
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Users.Register)
			r.Get("/", h.Users.List)
			r.Get("/{id}", h.Users.Get)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.Products.Create)
			r.Get("/", h.Products.List)
			r.Get("/search", h.Products.Search)
			r.Get("/category/{category}", h.Products.ListByCategory)
			r.Get("/{id}", h.Products.Get)
			r.Put("/{id}", h.Products.Update)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", h.Carts.AddItem)
			r.Get("/{userId}", h.Carts.GetCart)
			r.Delete("/{userId}/clear", h.Carts.ClearCart)
			r.Put("/{userId}/items/{productId}", h.Carts.UpdateItem)
			r.Delete("/{userId}/items/{productId}", h.Carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.Create)
			r.Get("/user/{userId}", h.Orders.ListByUser)
			r.Get("/{orderId}", h.Orders.Get)
			r.Post("/{orderId}/cancel", h.Orders.Cancel)

			// Status overrides are for back-office staff only.
			r.With(
				middleware.Auth(cfg.TokenValidator),
				middleware.RequireRole(domain.RoleAdmin),
			).Put("/{orderId}/status", h.Orders.UpdateStatus)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/create", h.Payments.Create)
			r.Get("/order/{orderId}", h.Payments.GetByOrder)
			r.Get("/gateway-key", h.Payments.GatewayKey)
		})

		// The webhook carries its own authentication (the gateway
		// signature), so it is rate limited instead of token guarded.
		r.With(middleware.RateLimit(cfg.WebhookRPS, cfg.WebhookBurst, cfg.Logger)).
			Post("/webhooks/payment", h.Payments.Webhook)
	})

	return r
}
