package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes Checker over HTTP.
type Handler struct {
	checker *Checker
}

// NewHandler creates a Handler.
func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// HandleHealth serves the basic liveness check used by load balancers.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Check())
}

// HandleLiveness serves the Kubernetes liveness probe.
func (h *Handler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.CheckLiveness())
}

// HandleReadiness serves the Kubernetes readiness probe: 503 if the
// database is down, 200 (with a degraded status in the body) if only
// Redis is unavailable — caching is optional, persistence is not.
func (h *Handler) HandleReadiness(c *gin.Context) {
	response := h.checker.CheckReadiness(c.Request.Context())

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// SetupRoutes mounts every health endpoint on r.
func SetupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.HandleHealth)
	r.GET("/healthz", handler.HandleLiveness)
	r.GET("/health/ready", handler.HandleReadiness)
}
