package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/internal/service"
)

type sessionProbe interface {
	User() *models.User
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	sessions sessionProbe
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, sessions sessionProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sessions: sessions}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
// It also reports whether a user is signed in.
func (h *MetricsHandler) Health(c *gin.Context) {
	signedIn := h.sessions != nil && h.sessions.User() != nil
	c.JSON(http.StatusOK, gin.H{"status": "ok", "signed_in": signedIn})
}
