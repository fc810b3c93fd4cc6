package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessProbe reports whether the mounted view has data.
type ReadinessProbe interface {
	Loading() bool
}

type HealthHandler struct {
	probe     ReadinessProbe
	startTime time.Time
}

func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{
		probe:     probe,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.probe != nil && h.probe.Loading() {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "loading",
			Uptime: time.Since(h.startTime).String(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
