package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/middleware"
)

type SettingsHandler struct {
	store settings.Store
}

func NewSettingsHandler(s settings.Store) *SettingsHandler { return &SettingsHandler{store: s} }

func (h *SettingsHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/settings", h.Get)
}

// RegisterAdmin expects an admin-only group.
func (h *SettingsHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/settings", h.Get)
	rg.PUT("/settings", h.Update)
}

func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.store.Get(c.Request.Context())
	if err != nil {
		fail(c, "load settings", err)
		return
	}
	httpx.OK(c, http.StatusOK, "settings fetched", gin.H{"settings": st})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var p settings.Patch
	if !httpx.BindJSON(c, &p) {
		return
	}
	st, err := h.store.Update(c.Request.Context(), p)
	if err != nil {
		fail(c, "update settings", err)
		return
	}
	httpx.OK(c, http.StatusOK, "settings updated", gin.H{"settings": st})
}

// MaintenanceGate answers 503 to non-admin writes while maintenance mode is on.
func MaintenanceGate(store settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if p, ok := middleware.PrincipalFrom(c); ok && p.IsAdmin() {
			c.Next()
			return
		}
		st, err := store.Get(c.Request.Context())
		if err != nil {
			fail(c, "load settings", err)
			return
		}
		if st.MaintenanceMode {
			httpx.Error(c, http.StatusServiceUnavailable, "the site is in maintenance mode", nil)
			return
		}
		c.Next()
	}
}
