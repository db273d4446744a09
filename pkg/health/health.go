package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

// Version information, typically set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Handler handles health check endpoints.
type Handler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewHandler creates a new health check handler.
func NewHandler(store storage.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is a simple liveness probe that always returns OK.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   Version,
	})
}

// Ready reports whether the durable storage backend is reachable.
func (h *Handler) Ready(c *gin.Context) {
	checks := map[string]string{"storage": h.checkStorage(c.Request.Context())}

	status := http.StatusOK
	overall := "ready"
	if checks["storage"] != "ok" {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	c.JSON(status, HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Version:   Version,
		Checks:    checks,
	})
}

// VersionInfo exposes build metadata.
func (h *Handler) VersionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   Version,
		"gitCommit": GitCommit,
		"buildTime": BuildTime,
	})
}

// checkStorage performs a write/read round trip against a probe key.
func (h *Handler) checkStorage(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	const probeKey = "nbHealthProbe"
	if err := h.store.Set(ctx, probeKey, "ok"); err != nil {
		h.logger.Warn("storage probe write failed", slog.String("error", err.Error()))
		return "unreachable"
	}
	if _, err := h.store.Get(ctx, probeKey); err != nil {
		h.logger.Warn("storage probe read failed", slog.String("error", err.Error()))
		return "unreachable"
	}
	_ = h.store.Delete(ctx, probeKey)
	return "ok"
}
