package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
	prefix  string
}

type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key this client touches.
	Prefix string
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb, prefix: cfg.Prefix}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Hit bumps the fixed-window counter for key and returns the new count with
// the time left in the window. The first hit in a window sets its expiry.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := c.prefix + key

	count, err := c.redisdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := c.redisdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, window, err
		}
	}

	ttl, err := c.redisdb.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// a key without expiry would never reset; repair it
		if count > 1 && err == nil && ttl == -1 {
			_ = c.redisdb.Expire(ctx, redisKey, window).Err()
		}
		ttl = window
	}

	return count, ttl, nil
}
