package middleware

import (
	"context"
	"fmt"
	"time"

	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SlidingWindowLimiter is satisfied by cache.RedisCache.
type SlidingWindowLimiter interface {
	AllowSlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
}

// RateLimitByUser admits at most limit requests per window for each
// authenticated caller. Limiter failures are logged and the request is let
// through.
func RateLimitByUser(limiter SlidingWindowLimiter, prefix string, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			return
		}

		key := fmt.Sprintf("%s:%s", prefix, userID.Hex())
		allowed, err := limiter.AllowSlidingWindow(c.Request.Context(), key, limit, window, time.Now())
		if err != nil {
			log.WithContext(c.Request.Context()).WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			log.WithContext(c.Request.Context()).LogSecurityEvent("rate_limited", "low", map[string]interface{}{
				"key": key,
			})
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			utils.TooManyRequestsResponse(c)
			return
		}

		c.Next()
	}
}
