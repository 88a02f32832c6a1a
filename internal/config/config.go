package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	limiter "github.com/ulule/limiter/v3"
)

const defaultBodyLimit = 1 << 20

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	LogFormat string
	LogLevel  string

	MetricsNamespace string
	MetricsEnabled   bool
	HTTPBucketsMs    string

	TracingEnabled       bool
	TracingExporter      string
	OTLPEndpoint         string
	TracingSamplingRatio float64

	BodyLimitBytes int64
	CartMaxItems   int

	// RateLimit uses the ulule/limiter format, e.g. "600-M". Empty or "off" disables limiting.
	RateLimit         string
	RateLimitRedisURL string
	// RateLimitBreakerCooldown is how long a failing shared store is bypassed.
	RateLimitBreakerCooldown time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                   valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                     valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins:       splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:          parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		LogFormat:                valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:                 valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:         valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "carttotals"),
		MetricsEnabled:           parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		HTTPBucketsMs:            strings.TrimSpace(k.String("OBS_HTTP_BUCKETS_MS")),
		TracingEnabled:           parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:          valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:             strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSamplingRatio:     parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		BodyLimitBytes:           int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), defaultBodyLimit)),
		CartMaxItems:             parseInt(k.String("CART_MAX_ITEMS"), 500),
		RateLimit:                "600-M",
		RateLimitRedisURL:        strings.TrimSpace(k.String("RATE_LIMIT_REDIS_URL")),
		RateLimitBreakerCooldown: parseDuration(k.String("RATE_LIMIT_BREAKER_COOLDOWN"), "30s"),
	}
	if k.Exists("RATE_LIMIT") {
		cfg.RateLimit = strings.TrimSpace(k.String("RATE_LIMIT"))
		switch strings.ToLower(cfg.RateLimit) {
		case "off", "none", "0":
			cfg.RateLimit = ""
		}
	}

	if cfg.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(cfg.RateLimit); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT: %w", err)
		}
	}
	if cfg.CartMaxItems <= 0 {
		cfg.CartMaxItems = 500
	}
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = defaultBodyLimit
	}
	if cfg.TracingSamplingRatio <= 0 || cfg.TracingSamplingRatio > 1 {
		cfg.TracingSamplingRatio = 1
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// AllowedOrigins returns the CORS allowlist, defaulting to any origin.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.CORSAllowedOrigins
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
// An empty value unsets the variable for the duration of the load.
func LoadForTests(env map[string]string) (*Config, error) {
	type saved struct {
		value string
		set   bool
	}
	original := make(map[string]saved, len(env))
	for key, value := range env {
		prev, ok := os.LookupEnv(key)
		original[key] = saved{value: prev, set: ok}
		if err := setEnvVar(key, value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()

	var errs []string
	for key, prev := range original {
		var restoreErr error
		if prev.set {
			restoreErr = os.Setenv(key, prev.value)
		} else {
			restoreErr = os.Unsetenv(key)
		}
		if restoreErr != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, restoreErr))
		}
	}
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}
