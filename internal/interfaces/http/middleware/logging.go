// Package middleware holds the gin middleware of the HTTP API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"photopick/internal/shared/id"
	"photopick/internal/shared/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			if generated, err := id.GenerateWithPrefix("req", id.DefaultLength); err == nil {
				requestID = generated
			}
		}
		if requestID != "" {
			c.Set("request_id", requestID)
			c.Header(requestIDHeader, requestID)
		}
		c.Next()
	}
}

// Logger writes one structured line per request once the handler chain is done.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if ownerID := c.Param("owner_id"); ownerID != "" {
			args = append(args, "owner_id", ownerID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		default:
			log.Debugw("HTTP request completed", args...)
		}
	}
}
