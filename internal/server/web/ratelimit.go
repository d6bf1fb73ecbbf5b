package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// windowCounter increments the hit counter for key and returns the new value.
// The key expires after window.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed-window counter on INCR + EXPIRE.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter allows limit requests per client IP per window.
type RateLimiter struct {
	counter windowCounter
	limit   int64
	window  time.Duration
	logger  logging.Logger
	now     func() time.Time
}

func NewRateLimiter(counter windowCounter, limit int, window time.Duration, logger logging.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		logger:  logger.With("module", "ratelimit"),
		now:     time.Now,
	}
}

func (l *RateLimiter) key(ip string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("swapboard:ratelimit:%s:%d", ip, bucket)
}

// Middleware lets the request through when the counter backend fails.
// A nil limiter is a no-op.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.limit <= 0 {
			c.Next()
			return
		}

		n, err := l.counter.Hit(c.Request.Context(), l.key(c.ClientIP()), l.window)
		if err != nil {
			l.logger.Warn(c.Request.Context(), "rate limit check failed", "error", err)
			c.Next()
			return
		}

		if n > l.limit {
			c.String(http.StatusTooManyRequests, "Too Many Requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
