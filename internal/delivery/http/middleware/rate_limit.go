package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"medhive-backend/internal/delivery/http/response"
	"medhive-backend/pkg/contract"
	"medhive-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
	// Whether to reject when Redis is unavailable instead of falling back to memory
	FailClosed bool
}

// ContactRateLimitConfig limits inquiry submissions per client IP.
func ContactRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:contact:",
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// Atomic increment with TTL on first hit.
// Returns: [current_count, ttl_remaining]
var rateLimitScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests in Redis when a client is configured and in
// process memory otherwise (or when Redis errors and FailClosed is false).
type RateLimiter struct {
	config RateLimitConfig
	redis  goredis.UniversalClient
	audit  *security.AuditLogger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	hits    int
}

func NewRateLimiter(config RateLimitConfig, client goredis.UniversalClient, audit *security.AuditLogger) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{
		config:  config,
		redis:   client,
		audit:   audit,
		now:     time.Now,
		entries: make(map[string]*rateLimitEntry),
	}
}

// Middleware returns the gin handler. A non-positive Limit disables limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.Limit <= 0 || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		fullKey := rl.config.KeyPrefix + rl.config.KeyFunc(c)

		var (
			count   int
			resetAt time.Time
			err     error
		)
		if rl.redis != nil {
			count, resetAt, err = rl.checkRedis(c.Request.Context(), fullKey)
			if err != nil {
				if rl.config.FailClosed {
					rl.audit.Log(c.Request.Context(), security.SecurityEvent{
						Event:       security.EventRateLimitTriggered,
						SubjectType: "system",
						IP:          c.ClientIP(),
						RequestID:   GetRequestID(c),
						Details:     map[string]interface{}{"error": err.Error()},
					})
					response.Error(c, http.StatusServiceUnavailable, contract.MsgServiceUnavailable)
					c.Abort()
					return
				}
				count, resetAt = rl.checkInMemory(fullKey)
			}
		} else {
			count, resetAt = rl.checkInMemory(fullKey)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > rl.config.Limit {
			retryAfter := int(resetAt.Sub(rl.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			rl.audit.LogRateLimitTriggered(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"), GetRequestID(c), c.FullPath())

			response.Error(c, http.StatusTooManyRequests, contract.MsgTooManyRequests)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.config.Limit-count))
		c.Next()
	}
}

func (rl *RateLimiter) checkRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(rl.config.Window.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	vals, err := rateLimitScript.Run(ctx, rl.redis, []string{key}, ttlSeconds).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	if len(vals) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	return int(vals[0]), rl.now().Add(time.Duration(vals[1]) * time.Second), nil
}

func (rl *RateLimiter) checkInMemory(key string) (int, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep expired windows every few hundred hits instead of running a ticker
	rl.hits++
	if rl.hits%256 == 0 {
		for k, e := range rl.entries {
			if now.After(e.resetAt) {
				delete(rl.entries, k)
			}
		}
	}

	entry, ok := rl.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &rateLimitEntry{resetAt: now.Add(rl.config.Window)}
		rl.entries[key] = entry
	}
	entry.count++

	return entry.count, entry.resetAt
}
