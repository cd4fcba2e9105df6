package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	limiterKeyPrefix = "ratelimit:"
	dialTimeout      = 5 * time.Second
)

// Config selects the Redis backing the login limiter. Addr is host:port or a
// redis:// (rediss://) URL; Password and DB override the URL when set.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dial, read and write; zero means five seconds.
	Timeout time.Duration
}

func (c Config) options() (*redis.Options, error) {
	opts := &redis.Options{Addr: c.Addr}
	if strings.Contains(c.Addr, "://") {
		parsed, err := redis.ParseURL(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		opts = parsed
	}
	if c.Password != "" {
		opts.Password = c.Password
	}
	if c.DB != 0 {
		opts.DB = c.DB
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = dialTimeout
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	return opts, nil
}

// Dial opens the client shared by the limiter and the readiness check. The
// client is closed again when the first PING fails.
func Dial(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// FixedWindowLimiter counts attempts per key in fixed windows.
// Key format: ratelimit:<scope>:<client>
type FixedWindowLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter allows limit attempts per key within window.
func NewFixedWindowLimiter(client *redis.Client, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client, limit: int64(limit), window: window}
}

// Allow records one attempt for key and reports whether it is within the
// limit. The window starts at the first attempt.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := limiterKeyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit: %w", err)
		}
	}

	return n <= l.limit, nil
}

// Reset forgets all attempts for key.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, limiterKeyPrefix+key).Err()
}
