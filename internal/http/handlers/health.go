package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/config"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
	cfg  config.Config
}

// create a new instance of the health handler
func NewHealthHandler(ping func(ctx context.Context) error, cfg config.Config) *HealthHandler {
	return &HealthHandler{ping: ping, cfg: cfg}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings the database; without a configured ping it is always ready.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		if err := h.ping(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) Root(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *HealthHandler) Version(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"version":     h.cfg.AppVersion,
		"app_name":    h.cfg.AppName,
		"environment": h.cfg.Env,
	})
}
