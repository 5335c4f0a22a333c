package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"ticket-marketplace/monitoring"
)

// RateLimiter is a fixed-window counter kept in Redis. Without Redis, or
// when Redis errors, every request is let through.
type RateLimiter struct {
	redis   redis.Cmdable
	monitor *monitoring.Monitor
	window  time.Duration
}

func NewRateLimiter(redisClient redis.Cmdable, monitor *monitoring.Monitor, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: redisClient, monitor: monitor, window: window}
}

// KeyFunc names the client a request is counted against.
type KeyFunc func(e *core.RequestEvent) string

// ByIP counts requests per client address.
func ByIP(e *core.RequestEvent) string {
	return "ip:" + e.RealIP()
}

// Allow counts one request for key in the current window and reports
// whether it is within limit.
func (r *RateLimiter) Allow(ctx context.Context, scope, key string, limit int) (bool, error) {
	if r.redis == nil || limit <= 0 {
		return true, nil
	}

	bucket := fmt.Sprintf("ratelimit:%s:%s", scope, key)

	count, err := r.redis.Incr(ctx, bucket).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, bucket, r.window).Err(); err != nil {
			return true, err
		}
	}

	return count <= int64(limit), nil
}

// Limit returns a route middleware allowing limit requests per window for
// each key.
func (r *RateLimiter) Limit(scope string, limit int, key KeyFunc) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		allowed, err := r.Allow(e.Request.Context(), scope, key(e), limit)
		if err != nil {
			slog.Warn("Rate limiter unavailable, allowing request",
				"scope", scope,
				"error", err,
			)
			return e.Next()
		}
		if !allowed {
			r.monitor.TrackRateLimited(scope)
			e.Response.Header().Set("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "rate_limited",
			})
		}
		return e.Next()
	}
}
