package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/brand"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/order"
	"storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry
	// Metrics is shared with the upstream client. Built from Registry when nil.
	Metrics *kit.Metrics

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog catalog.Store
	Brands  brand.Store
	Orders  order.Source
	Carts   *cart.Registry

	// ImagesURL enables the /images proxy when set.
	ImagesURL string

	MaxAddQuantity  int
	MaxLineQuantity int
	OrderPageSize   int
	BrandWrites     *kit.IPRateLimiter
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond

	limiterForgetEvery = 5 * time.Minute
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.Catalog == nil || deps.Brands == nil || deps.Orders == nil || deps.Carts == nil {
		return nil, fmt.Errorf("gateway: catalog, brands, orders and carts are required")
	}
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	setupMiddleware(r, log)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, log))

	if deps.ImagesURL != "" {
		images, err := NewImageProxy(deps.ImagesURL, log)
		if err != nil {
			return nil, err
		}
		r.Get("/images/*", images.ServeHTTP)
		r.Head("/images/*", images.ServeHTTP)
	}

	carts := &cart.Server{
		Registry:        deps.Carts,
		Log:             log,
		MaxAddQuantity:  deps.MaxAddQuantity,
		MaxLineQuantity: deps.MaxLineQuantity,
	}
	r.Mount("/cart", carts.Routes())

	(&catalog.Server{Store: deps.Catalog, Log: log}).Mount(r)
	(&brand.Server{Store: deps.Brands, Log: log, WriteLimiter: deps.BrandWrites}).Mount(r)
	(&order.Server{Source: deps.Orders, Log: log, PageSize: deps.OrderPageSize}).Mount(r)

	return r, nil
}

// RunBackground expires idle carts and stale limiter entries until ctx is
// done.
func RunBackground(ctx context.Context, deps Deps, sweepEvery time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Carts.Run(ctx, sweepEvery)
		return nil
	})

	if deps.BrandWrites != nil {
		g.Go(func() error {
			t := time.NewTicker(limiterForgetEvery)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					deps.BrandWrites.Forget()
				}
			}
		})
	}

	return g.Wait()
}

func setupMiddleware(r *chi.Mux, log *zap.Logger) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = kit.NewMetrics(deps.Registry)
	}
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	checks := []struct {
		name string
		p    pinger
	}{
		{"catalog", deps.Catalog},
		{"orders", deps.Orders},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, c := range checks {
			if err := checkReady(ctx, c.p); err != nil {
				log.Warn("readyz failed: "+c.name, zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, c.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, p pinger) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()
	return p.Ping(cctx)
}
