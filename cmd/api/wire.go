package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/glowhaus/storefront-backend/api/routes"
	"github.com/glowhaus/storefront-backend/internal/analytics"
	"github.com/glowhaus/storefront-backend/internal/analytics/query"
	"github.com/glowhaus/storefront-backend/internal/cart"
	"github.com/glowhaus/storefront-backend/internal/identity"
	"github.com/glowhaus/storefront-backend/internal/media"
	"github.com/glowhaus/storefront-backend/internal/orders"
	products "github.com/glowhaus/storefront-backend/internal/products"
	"github.com/glowhaus/storefront-backend/pkg/config"
	"github.com/glowhaus/storefront-backend/pkg/db"
	"github.com/glowhaus/storefront-backend/pkg/firebase"
	"github.com/glowhaus/storefront-backend/pkg/logger"
	"github.com/glowhaus/storefront-backend/pkg/metrics"
	pkgpubsub "github.com/glowhaus/storefront-backend/pkg/pubsub"
	"github.com/glowhaus/storefront-backend/pkg/redis"
	"github.com/glowhaus/storefront-backend/pkg/storage/gcs"
)

type application struct {
	handler http.Handler
	cart    cart.Service
	closers []func() error
}

func (a *application) close(logg *logger.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logg.Error(context.Background(), "error releasing dependency", err)
		}
	}
}

func cartSweepInterval(idleTTL time.Duration) time.Duration {
	if idleTTL <= 0 {
		return time.Minute
	}
	if half := idleTTL / 2; half < time.Minute {
		return half
	}
	return time.Minute
}

func wire(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*application, error) {
	app := &application{}
	fail := func(err error) (*application, error) {
		app.close(logg)
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fail(fmt.Errorf("bootstrap redis: %w", err))
		}
		redisClient = client
		app.closers = append(app.closers, client.Close)
	}

	var fbApp *firebase.App
	needsFirebase := strings.EqualFold(cfg.Auth.Provider, config.AuthProviderFirebase) ||
		strings.EqualFold(cfg.Cart.Backend, config.CartBackendFirestore)
	if needsFirebase {
		a, err := firebase.NewApp(ctx, cfg.GCP, logg)
		if err != nil {
			return fail(err)
		}
		fbApp = a
	}

	verifier, err := buildVerifier(ctx, cfg, fbApp)
	if err != nil {
		return fail(err)
	}

	storage, err := buildCartStorage(ctx, cfg, dbClient, redisClient, fbApp, app)
	if err != nil {
		return fail(err)
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo)
	if err != nil {
		return fail(err)
	}
	inventory, err := products.NewInventory(productRepo)
	if err != nil {
		return fail(err)
	}

	cartService, err := cart.NewService(storage, productService, logg, cart.ServiceOptions{
		Backend:          strings.ToLower(cfg.Cart.Backend),
		PlaceholderImage: cfg.Cart.PlaceholderImage,
		IdleTTL:          cfg.Cart.IdleTTL,
		Metrics:          metrics.NewCartMetrics(registry),
	})
	if err != nil {
		return fail(err)
	}
	app.cart = cartService

	publisher, err := buildOrderPublisher(ctx, cfg, logg, app)
	if err != nil {
		return fail(err)
	}

	pricing, err := orders.NewPricing(cfg.Checkout)
	if err != nil {
		return fail(err)
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Inventory: inventory,
		Carts:     cartService,
		Publisher: publisher,
		Pricing:   pricing,
		Metrics:   metrics.NewOrderMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		return fail(err)
	}

	analyticsService, err := analytics.NewService(query.NewOrderStats(dbClient.DB()), productRepo, cfg.Checkout.LowStockThreshold, nil)
	if err != nil {
		return fail(err)
	}

	var mediaService media.Service
	if strings.TrimSpace(cfg.GCS.BucketName) != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, gcsClient.Close)
		if mediaService, err = media.NewService(gcsClient, cfg.Media.MaxUploadBytes(), logg); err != nil {
			return fail(err)
		}
	} else {
		logg.Warn(ctx, "gcs bucket not configured, media uploads disabled")
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Verifier:    verifier,
		DBPinger:    dbClient,
		Registry:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Products:    productService,
		Cart:        cartService,
		Orders:      orderService,
		Analytics:   analyticsService,
		Media:       mediaService,
	}
	if redisClient != nil {
		deps.Redis = redisClient
		deps.RedisPinger = redisClient
	}
	app.handler = routes.NewRouter(deps)
	return app, nil
}

func buildVerifier(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (identity.Verifier, error) {
	policy := identity.NewAdminPolicy(cfg.Admin.Emails)
	if strings.EqualFold(cfg.Auth.Provider, config.AuthProviderJWT) {
		return identity.NewJWTVerifier(cfg.Auth, policy)
	}
	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return identity.NewFirebaseVerifier(authClient, policy)
}

func buildCartStorage(ctx context.Context, cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, fbApp *firebase.App, app *application) (cart.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Cart.Backend)) {
	case config.CartBackendMemory:
		return cart.NewMemoryStorage(), nil
	case config.CartBackendRedis:
		return cart.NewRedisStorage(redisClient, cfg.Cart.SnapshotTTL)
	case config.CartBackendFirestore:
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		return cart.NewFirestoreStorage(client, cfg.Cart.SnapshotTTL)
	default:
		return cart.NewSQLStorage(dbClient.DB())
	}
}

func buildOrderPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger, app *application) (orders.Publisher, error) {
	if strings.TrimSpace(cfg.PubSub.OrdersTopic) == "" {
		logg.Warn(ctx, "orders topic not configured, order events disabled")
		return orders.NoopPublisher{}, nil
	}
	client, err := pkgpubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, client.Close)

	topic, err := pkgpubsub.NewTopicPublisher(client.OrdersPublisher())
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error {
		topic.Stop()
		return nil
	})
	return orders.NewTopicPublisher(topic)
}
