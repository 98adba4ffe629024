package http

import (
	"fmt"

	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const flagLimitPrefix = "reviews_flag_limit"

// NewFlagLimiter builds the limiter guarding the flag endpoint. Counters live in
// Redis when a URL is configured so every replica shares them, in memory otherwise.
func NewFlagLimiter(cfg config.RateLimit) (*limiter.Limiter, error) {
	const op = "internal.transport.http.NewFlagLimiter"

	rate, err := limiter.NewRateFromFormatted(cfg.Flag)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid rate '%s': %w", op, cfg.Flag, err)
	}

	if cfg.RedisURL == "" {
		return limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: flagLimitPrefix}), rate), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}

	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{Prefix: flagLimitPrefix})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create redis store: %w", op, err)
	}

	return limiter.New(store, rate), nil
}
