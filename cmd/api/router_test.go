package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cart-totals/internal/config"
	"github.com/noah-isme/cart-totals/internal/ratelimit"
)

func testRouter(t *testing.T, cfg *config.Config, rate string) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	deps := routerDeps{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Registry: reg,
		Gatherer: reg,
	}
	if rate != "" {
		store, err := ratelimit.NewStore("", "router-test")
		require.NoError(t, err)
		lim, err := ratelimit.New(store, rate)
		require.NoError(t, err)
		deps.Limiter = lim
	}
	return newRouter(deps)
}

func baseConfig() *config.Config {
	return &config.Config{
		MetricsEnabled:   true,
		MetricsNamespace: "carttotals",
		BodyLimitBytes:   1 << 20,
		CartMaxItems:     10,
	}
}

func TestRouterServesTotals(t *testing.T) {
	r := testRouter(t, baseConfig(), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/totals",
		strings.NewReader(`{"items":[{"price":4,"quantity":1}],"discountPercent":50,"taxRate":50}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":3`)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterExposesMetricsAndHealth(t *testing.T) {
	r := testRouter(t, baseConfig(), "")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/pricing/tax",
		strings.NewReader(`{"price":10,"taxRate":10}`)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `carttotals_cart_calculations_total{operation="tax",outcome="ok"} 1`)
	require.Contains(t, rec.Body.String(), "carttotals_http_requests_total")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	cfg := baseConfig()
	cfg.BodyLimitBytes = 16
	r := testRouter(t, cfg, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/totals",
		strings.NewReader(`{"items":[{"price":4,"quantity":1}]}`)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouterAppliesRateLimit(t *testing.T) {
	r := testRouter(t, baseConfig(), "1-M")

	send := func() int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/discount",
			strings.NewReader(`{"price":100,"discountPercent":10}`)))
		return rec.Code
	}
	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusTooManyRequests, send())

	// health checks are outside the limited group
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
