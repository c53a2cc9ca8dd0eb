package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/llsilvas/user-gateway/internal/config"
)

// WriteRateLimiter throttles mutating requests (POST, PUT, PATCH, DELETE) with
// one token bucket per caller. Callers are keyed by token subject when the JWT
// middleware ran first, otherwise by client IP. Reads pass through.
func WriteRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	every := cfg.Interval / time.Duration(cfg.Requests)
	if every <= 0 {
		every = time.Second
	}
	buckets := &callerBuckets{
		limit:    rate.Every(every),
		burst:    cfg.Requests,
		limiters: make(map[string]*rate.Limiter),
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isWrite(c.Request().Method) {
				return next(c)
			}
			if !buckets.get(callerKey(c)).Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "write rate limit exceeded"})
			}
			return next(c)
		}
	}
}

type callerBuckets struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func (b *callerBuckets) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.limiters[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.limiters[key] = l
	}
	return l
}

func callerKey(c echo.Context) string {
	if sub, ok := c.Get(ContextKeyUserID).(string); ok && sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.RealIP()
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
