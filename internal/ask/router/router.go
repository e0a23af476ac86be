// Package router provides ask service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-ask/internal/ask/handler"
	"github.com/kart-io/sentinel-ask/pkg/middleware"
	"github.com/kart-io/sentinel-ask/pkg/observability/metrics"
)

// Config holds the routing options.
type Config struct {
	// AllowOrigins is passed to the CORS middleware.
	AllowOrigins []string
	// Registry enables HTTP metrics and GET /metrics when set.
	Registry *metrics.Registry
	// Namespace prefixes the HTTP metric names.
	Namespace string
}

// New builds the gin engine with middleware and the ask routes.
func New(h *handler.AskHandler, cfg Config) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(),
	)
	if cfg.Registry != nil {
		engine.Use(middleware.MetricsWithConfig(middleware.MetricsConfig{
			Registry:  cfg.Registry,
			Namespace: cfg.Namespace,
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
		middleware.RegisterMetricsRoutes(engine, "/metrics", cfg.Registry)
	}
	engine.Use(
		middleware.Logger(),
		middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowOrigins}),
	)

	Register(engine, h)
	return engine
}

// Register registers the ask service routes.
func Register(engine *gin.Engine, h *handler.AskHandler) {
	engine.GET("/healthz", h.Health)
	middleware.RegisterVersionRoutes(engine, "/version")

	api := engine.Group("/api")
	{
		api.Handle(http.MethodPost, "/ask", h.Ask)
		api.Handle(http.MethodGet, "/stats", h.Stats)
	}

	engine.NoMethod(handler.MethodNotAllowed)
	engine.NoRoute(handler.NotFound)

	logger.Info("HTTP routes registered")
}
