package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/cart-totals/internal/cart"
	"github.com/noah-isme/cart-totals/internal/config"
	"github.com/noah-isme/cart-totals/internal/health"
	"github.com/noah-isme/cart-totals/internal/obs"
	"github.com/noah-isme/cart-totals/internal/ratelimit"
	"github.com/noah-isme/cart-totals/internal/security"
)

type routerDeps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Tracing  bool
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	Limiter  *limiter.Limiter
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}

	var cartMetrics *obs.CartMetrics
	if cfg.MetricsEnabled {
		httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.HTTPBucketsMs), d.Registry)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
		cartMetrics = obs.NewCartMetrics(cfg.MetricsNamespace, d.Registry)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	healthHandler := health.Handler{}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	svc := &cart.Service{
		Logger:  d.Logger.With().Str("component", "cart").Logger(),
		Metrics: cartMetrics,
	}
	cartHandler := cart.NewHandler(svc, cfg.CartMaxItems)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.Use(ratelimit.Handler{
			Limiter: d.Limiter,
			OnError: func(err error) {
				d.Logger.Error().Err(err).Msg("rate limit store")
			},
		}.Middleware)
		cartHandler.Register(v)
	})

	return r
}
