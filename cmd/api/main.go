package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/cart-totals/internal/config"
	"github.com/noah-isme/cart-totals/internal/health"
	"github.com/noah-isme/cart-totals/internal/obs"
	"github.com/noah-isme/cart-totals/internal/ratelimit"
	"github.com/noah-isme/cart-totals/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	if err := serve(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// serve runs the API until a signal arrives. Its deferred cleanup (tracer
// flush, limiter store close) always runs before main exits.
func serve(cfg *config.Config, logger zerolog.Logger) error {
	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "cart-totals",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	deps := routerDeps{
		Config:   cfg,
		Logger:   logger,
		Tracing:  tracingEnabled,
		Registry: prometheus.DefaultRegisterer,
		Gatherer: prometheus.DefaultGatherer,
	}
	if cfg.RateLimit != "" {
		store, err := ratelimit.NewStore(cfg.RateLimitRedisURL, "")
		if err != nil {
			return fmt.Errorf("initialise rate limit store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("close rate limit store")
			}
		}()
		var backend limiter.Store = store
		if store.Shared {
			breakerLogger := logger.With().Str("component", "ratelimit").Logger()
			backend = ratelimit.Guard(store, resilience.NewBreaker(resilience.Options{
				Target:      "ratelimit_store",
				MinRequests: 5,
				OpenFor:     cfg.RateLimitBreakerCooldown,
				Metrics:     resilience.NewMetrics(deps.Registry, cfg.MetricsNamespace),
				Logger:      &breakerLogger,
			}))
		}
		lim, err := ratelimit.New(backend, cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("initialise rate limiter: %w", err)
		}
		deps.Limiter = lim
		logger.Info().Str("rate", cfg.RateLimit).Bool("shared", store.Shared).Msg("rate limiting enabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited unexpectedly: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	health.SetReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
	return nil
}
