package server

import (
	"fmt"
	"net/http"

	"github.com/abduss/quizroom/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// rateLimitScript increments the window counter and stamps its expiry in the
// same atomic call. A separate EXPIRE could be lost after the INCR, leaving
// a counter with no TTL that throttles the client forever.
var rateLimitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// RateLimit returns a fixed-window per-IP limiter backed by Redis, used on
// the unauthenticated auth endpoints to slow credential stuffing. Redis
// failures fail open: an unavailable limiter must not take login down with
// it.
func RateLimit(cfg config.RateLimitConfig, rdb redis.Scripter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.ClientIP(), c.FullPath())
		ctx := c.Request.Context()

		count, err := rateLimitScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Int64()
		if err != nil {
			if log != nil {
				log.Warn("rate limiter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		if count > int64(cfg.Limit) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", cfg.Window.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
