package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
	log  *logrus.Logger
}

// NewHealthHandler takes the database ping, usually database.Ping bound to the pool.
func NewHealthHandler(ping func(ctx context.Context) error, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, log: log}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, dbState, code := "ok", "connected", http.StatusOK
	if err := h.ping(ctx); err != nil {
		h.log.WithError(err).Warn("health check: database unreachable")
		status, dbState, code = "degraded", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbState,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
