package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

// RateLimiter allows Limit requests per client IP in each fixed Window
type RateLimiter struct {
	cache  *utils.TTLCache
	limit  int
	window time.Duration
	scope  string
}

// NewRateLimiter counts requests in cache; the caller owns the cache and stops it on shutdown.
// scope separates counters when several limiters share one cache.
func NewRateLimiter(cache *utils.TTLCache, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{cache: cache, limit: limit, window: window, scope: scope}
}

// Allow records one request for key and reports whether it is within the limit
func (r *RateLimiter) Allow(key string) (bool, int) {
	n := r.cache.Increment(r.scope+":"+key, r.window)
	remaining := r.limit - n
	if remaining < 0 {
		remaining = 0
	}
	return n <= r.limit, remaining
}

// Middleware rejects clients over the limit with 429 RATE_LIMITED
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining := r.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(r.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			utils.LogWarn("rate limit exceeded for %s on %s", c.ClientIP(), c.Request.URL.Path)
			c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			utils.AbortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
