package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/brand"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/order"
	"storefront/internal/upstream"
	"storefront/pkg/kit"
)

const redisPingTimeout = 2 * time.Second

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := kit.InitTracing(ctx, kit.TracingConfig{
		Service:     service,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		Probability: cfg.Tracing.Probability,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := kit.NewMetrics(reg)

	deps := gateway.Deps{
		Carts:           cart.NewRegistry(cfg.Cart.IdleTTL, cart.NewMetrics(reg), log),
		MaxAddQuantity:  cfg.Cart.MaxAddQuantity,
		MaxLineQuantity: cfg.Cart.MaxLineQuantity,
		OrderPageSize:   cfg.Orders.PageSize,
		BrandWrites:     kit.NewIPRateLimiter(cfg.Brands.WritesPerMinute, time.Minute),
	}

	var products catalog.Store
	if cfg.Upstream.Offline {
		log.Warn("upstream offline: serving the demo catalog")
		products = catalog.NewMemStore()
		deps.Brands = brand.NewMemStore()
		deps.Orders = order.NewMemSource(order.DemoOrders()...)
	} else {
		api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, metrics)
		products = catalog.NewRemoteStore(api, cfg.Upstream.ImagesURL)
		deps.Brands = brand.NewRemoteStore(api)
		deps.Orders = order.NewRemoteSource(api)
		deps.ImagesURL = cfg.Upstream.ImagesURL
	}

	cache, closeCache := newCache(ctx, cfg.Cache, log)
	defer closeCache()
	deps.Catalog = &catalog.CachedStore{Store: products, Cache: cache, TTL: cfg.Cache.TTL, Log: log}

	h, err := gateway.NewHandler(deps, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		Metrics:        metrics,
		MetricsEnabled: true,
		MetricsToken:   cfg.Server.MetricsToken,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gateway.RunBackground(gctx, deps, cfg.Cart.SweepEvery)
	})
	g.Go(func() error {
		return kit.RunHTTPServer(gctx, ":"+cfg.Server.Port, h, log)
	})
	return g.Wait()
}

// newCache prefers Redis when configured and reachable, falling back to an
// in-process cache.
func newCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (catalog.Cache, func()) {
	if cfg.RedisAddr == "" {
		return catalog.NewMemCache(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := rdb.Ping(pctx).Err(); err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return catalog.NewMemCache(), func() {}
	}

	log.Info("catalog cache on redis", zap.String("addr", cfg.RedisAddr))
	return catalog.NewRedisCache(rdb, cfg.RedisPrefix), func() { _ = rdb.Close() }
}
