package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nbinstitution/lms-client-go/internal/features/auth"
	"github.com/nbinstitution/lms-client-go/internal/features/course"
	"github.com/nbinstitution/lms-client-go/pkg/health"
	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, store storage.Store, manager *auth.Manager, courseStore *course.Store, logger *slog.Logger) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(store, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.VersionInfo)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	authHandler := auth.NewHandler(manager, logger)
	auth.RegisterRoutes(api, authHandler)

	courseHandler := course.NewHandler(courseStore, logger)
	course.RegisterRoutes(api, courseHandler, manager, logger)
}
