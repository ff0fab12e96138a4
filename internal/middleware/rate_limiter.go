package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/ratelimit"
)

// IPRateLimiter is a coarse per-IP throttle applied to the whole API. The
// per-action fixed-window counters on the auth endpoints sit behind it.
type IPRateLimiter struct {
	limiters      map[string]*rate.Limiter
	mu            sync.Mutex
	limit         rate.Limit
	burst         int
	cleanupTicker *time.Ticker
}

// NewIPRateLimiter creates a per-IP token bucket limiter
func NewIPRateLimiter(requestsPerSecond float64, burst int) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters:      make(map[string]*rate.Limiter),
		limit:         rate.Limit(requestsPerSecond),
		burst:         burst,
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically drops idle limiters to prevent unbounded growth
func (rl *IPRateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.mu.Lock()
		rl.limiters = make(map[string]*rate.Limiter)
		rl.mu.Unlock()
	}
}

// Stop stops the cleanup ticker
func (rl *IPRateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

func (rl *IPRateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[ip] = limiter
	}
	return limiter
}

// Middleware limits requests based on client IP
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ActionRateLimiter admits at most limit requests per client IP for one named
// action within the limiter's fixed window. Denials answer 429 with a wait
// hint and a Retry-After header.
func ActionRateLimiter(limiter ratelimit.Limiter, action string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := action + ":" + c.ClientIP()

		d, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// Throttling is best-effort; a broken counter store must not
			// take the auth endpoints down with it.
			c.Next()
			return
		}

		if !d.Allowed {
			retryAfter := int(d.RetryAfter.Seconds())
			rateErr := &domain.RateLimitedError{RetryAfterSeconds: retryAfter}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       rateErr.Error(),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
