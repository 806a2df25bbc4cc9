// Package cache holds the Redis-backed session store and rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspulse/campuspulse/internal/config"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	revokedPrefix   = "session:revoked:"
	rateLimitPrefix = "rate_limit:"
)

// SessionStore tracks revoked access tokens by their JWT ID
type SessionStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RateLimiter counts hits per key in a fixed window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Client wraps a go-redis client
type Client struct {
	rdb    *goredis.Client
	logger zerolog.Logger
}

// NewClient connects to Redis and pings it. An empty address disables Redis
// and returns a nil client.
func NewClient(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("Redis address not configured - logout revocation and rate limiting disabled")
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return &Client{rdb: rdb, logger: logger}, nil
}

// RevokeToken marks jti as revoked until the token would have expired anyway
func (c *Client) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked
func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Allow increments the counter for key and reports whether it is still within
// limit. The first hit in a window sets the expiry.
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := rateLimitPrefix + key

	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
