package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/profilehub/profilehub/internal/identity"
	"github.com/profilehub/profilehub/pkg/metrics"
	"github.com/profilehub/profilehub/pkg/respond"
)

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter.
// Keying: prefers the resolved identity's subject claim, otherwise client IP.
// Algorithm: INCR a per-window key and compare against allowed = floor(rps*windowSeconds)+burst.
// Intentionally simple and deterministic, suitable for distributed deployments.
func RedisRateLimitMiddleware(client *redis.Client, f respond.Factory, exec respond.Executor, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		// fallback to in-memory if no client
		return RateLimitMiddleware(f, exec, rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int(rps*float64(windowSeconds)) + burst
	return func(c *gin.Context) {
		key := limiterKey(c)

		// window bucket suffix
		bucket := time.Now().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("%s:%d", key, bucket)

		cnt, err := client.Incr(c.Request.Context(), redisKey).Result()
		if err != nil {
			// limiter backend down: let the request through rather than
			// fail the whole pipeline on an auxiliary concern
			c.Next()
			return
		}
		if cnt == 1 {
			_ = client.Expire(c.Request.Context(), redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if int(cnt) > allowedPerWindow {
			c.Header("Retry-After", fmt.Sprintf("%d", windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.Abort()
			_ = exec.Execute(c, f.Message(http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// limiterKey prefers the authenticated subject so users behind one NAT are
// limited independently; anonymous traffic falls back to client IP.
func limiterKey(c *gin.Context) string {
	if sub := IdentityFromContext(c).ClaimValue(identity.ClaimSubject); sub != "" {
		return "rl:sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "rl:ip:" + ip
}
