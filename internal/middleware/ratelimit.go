package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/rs/zerolog"
)

// RateLimit enforces a per-source-address ceiling via Redis GCRA. This is
// independent of the per-account lockout: the lockout alone cannot stop
// credential stuffing spread across many accounts. The limiter fails open
// when Redis is unreachable so an outage does not take logins down with it.
func RateLimit(limiter *redis_rate.Limiter, name string, max int, window time.Duration, message string, log zerolog.Logger) gin.HandlerFunc {
	limit := redis_rate.Limit{
		Rate:   max,
		Burst:  max,
		Period: window,
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + name + ":" + c.ClientIP()

		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			log.Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}

		c.Next()
	}
}
