package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/pkg/httpx"
)

// Pinger is satisfied by *database.Handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth mounts liveness and readiness probes.
func RegisterHealth(g *gin.Engine, db Pinger) {
	g.GET("/health", func(c *gin.Context) {
		httpx.OK(c, http.StatusOK, "ok", nil)
	})
	g.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			httpx.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		httpx.OK(c, http.StatusOK, "ready", nil)
	})
}
