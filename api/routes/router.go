package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowhaus/storefront-backend/api/controllers"
	"github.com/glowhaus/storefront-backend/api/middleware"
	"github.com/glowhaus/storefront-backend/internal/analytics"
	"github.com/glowhaus/storefront-backend/internal/cart"
	"github.com/glowhaus/storefront-backend/internal/identity"
	"github.com/glowhaus/storefront-backend/internal/media"
	"github.com/glowhaus/storefront-backend/internal/orders"
	products "github.com/glowhaus/storefront-backend/internal/products"
	"github.com/glowhaus/storefront-backend/pkg/config"
	"github.com/glowhaus/storefront-backend/pkg/logger"
	"github.com/glowhaus/storefront-backend/pkg/metrics"
	pkgredis "github.com/glowhaus/storefront-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimitStore
}

// Deps collects everything the router wires. Nil services answer 500 and nil
// infrastructure disables the middleware that needs it.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Verifier identity.Verifier

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Redis       redisStore

	Registry    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Products  products.Service
	Cart      cart.Service
	Orders    orders.Service
	Analytics analytics.Service
	Media     media.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"db":    d.DBPinger,
			"redis": d.RedisPinger,
		}, logg))
	})

	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	var idem pkgredis.IdempotencyStore
	var limiter middleware.RateLimitStore
	if d.Redis != nil {
		idem, limiter = d.Redis, d.Redis
	}
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.HTTP.CheckoutRateWindow, cfg.HTTP.CheckoutRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Verifier, logg))
		r.Use(middleware.GuestID(logg))
		r.Use(middleware.Idempotency(idem, logg))

		r.Get("/products", controllers.ListProducts(d.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(d.Products, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(d.Cart, logg))
			r.Delete("/", controllers.CartClear(d.Cart, logg))
			r.Post("/items", controllers.CartAddItem(d.Cart, logg))
			r.Patch("/items", controllers.CartUpdateItem(d.Cart, logg))
			r.Delete("/items", controllers.CartRemoveItem(d.Cart, logg))
			r.With(middleware.RequireUser(logg)).Post("/adopt", controllers.CartAdopt(d.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.With(middleware.RateLimit(checkoutPolicy, limiter, logg)).Post("/checkout", controllers.Checkout(d.Orders, logg))
			r.Get("/orders", controllers.ListMyOrders(d.Orders, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(d.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Verifier, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Post("/products", controllers.AdminCreateProduct(d.Products, logg))
		r.Patch("/products/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
		r.Delete("/products/{productId}", controllers.AdminDeleteProduct(d.Products, logg))

		r.Get("/orders", controllers.AdminListOrders(d.Orders, logg))
		r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))

		r.Get("/analytics/dashboard", controllers.AdminDashboard(d.Analytics, logg))
		r.Post("/media", controllers.AdminUploadMedia(d.Media, cfg.Media.MaxUploadBytes(), logg))
	})

	return r
}
