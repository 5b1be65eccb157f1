package middleware

import (
	"github.com/gin-gonic/gin"

	"photopick/internal/infrastructure/ratelimit"
	"photopick/internal/shared/errors"
	"photopick/internal/shared/logger"
	"photopick/internal/shared/utils"
)

// UploadRateLimit throttles requests per owner_id path parameter. When the
// limiter backend fails the request goes through; the quota ledger still
// bounds what an owner can store.
func UploadRateLimit(limiter ratelimit.RateLimiter, cfg ratelimit.Config, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.Param("owner_id")
		if ownerID == "" || !cfg.Enabled() {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), "upload:"+ownerID, cfg)
		if err != nil {
			log.Warnw("rate limiter unavailable, letting request through", "owner_id", ownerID, "error", err)
			c.Next()
			return
		}
		if !allowed {
			utils.ErrorResponseWithError(c, errors.NewRateLimitedError("Too many uploads, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}
