package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const defaultPrefix = "carttotals:ratelimit"

// Store is a limiter store and the function releasing its resources.
type Store struct {
	limiter.Store
	Close  func() error
	Shared bool
}

// NewStore returns an in-process store, or a Redis backed one shared across
// replicas when redisURL is set.
func NewStore(redisURL, prefix string) (*Store, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}

	if strings.TrimSpace(redisURL) == "" {
		return &Store{Store: memory.NewStoreWithOptions(opts), Close: func() error { return nil }}, nil
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	store, err := limiterredis.NewStoreWithOptions(client, opts)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}
	return &Store{Store: store, Close: client.Close, Shared: true}, nil
}

// New builds a limiter enforcing the formatted rate (e.g. "600-M") on store.
func New(store limiter.Store, formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return limiter.New(store, rate), nil
}
