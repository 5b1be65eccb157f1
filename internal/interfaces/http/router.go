// Package http assembles the gin engine of the API server.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photopick/internal/interfaces/http/middleware"
	"photopick/internal/interfaces/http/routes"
	"photopick/internal/shared/logger"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds what the router needs besides the route handlers.
type RouterConfig struct {
	Mode           string
	AllowedOrigins []string
	Quota          *routes.QuotaRouteConfig
	// Checks run on every /health request, keyed by dependency name.
	Checks map[string]HealthCheck
	Logger logger.Interface
}

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	checks map[string]HealthCheck
	logger logger.Interface
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.SecurityHeaders(),
	)

	r := &Router{
		engine: engine,
		checks: cfg.Checks,
		logger: cfg.Logger,
	}
	engine.GET("/health", r.health)
	routes.SetupQuotaRoutes(engine, cfg.Quota)
	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(r.checks))
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			r.logger.Warnw("health check failed", "dependency", name, "error", err)
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	c.JSON(status, gin.H{
		"status": http.StatusText(status),
		"checks": results,
		"time":   time.Now().UTC(),
	})
}
