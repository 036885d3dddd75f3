package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/pitches"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/middleware"
)

type PitchHandler struct {
	pitches  *pitches.Service
	users    *users.Service
	settings settings.Store
}

func NewPitchHandler(p *pitches.Service, u *users.Service, s settings.Store) *PitchHandler {
	return &PitchHandler{pitches: p, users: u, settings: s}
}

// Register mounts the writer routes behind auth.
func (h *PitchHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc, gates ...gin.HandlerFunc) {
	rg.POST("/pitches", append([]gin.HandlerFunc{auth}, append(gates, h.Submit)...)...)
	rg.GET("/pitches/mine", auth, h.Mine)
}

// RegisterAdmin expects an admin-only group.
func (h *PitchHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/pitches", h.List)
	rg.PATCH("/pitches/:id", h.Review)
}

// writer reloads the caller so a revoked writer flag takes effect before the
// access token expires.
func (h *PitchHandler) writer(c *gin.Context) (pitches.Writer, bool) {
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.users.GetByID(c.Request.Context(), p.Subject)
	if err != nil {
		fail(c, "user lookup", err)
		return pitches.Writer{}, false
	}
	return pitches.Writer{ID: u.ID, Email: u.Email, IsWriter: u.IsWriter}, true
}

func (h *PitchHandler) Submit(c *gin.Context) {
	var req pitches.SubmitInput
	if !httpx.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	st, err := h.settings.Get(ctx)
	if err != nil {
		fail(c, "load settings", err)
		return
	}
	w, ok := h.writer(c)
	if !ok {
		return
	}
	p, err := h.pitches.Submit(ctx, w, req, st.AllowPitches)
	if err != nil {
		fail(c, "pitch submission", err)
		return
	}
	httpx.OK(c, http.StatusCreated, "pitch submitted", gin.H{"pitch": p})
}

func (h *PitchHandler) Mine(c *gin.Context) {
	w, ok := h.writer(c)
	if !ok {
		return
	}
	if !w.IsWriter {
		fail(c, "list pitches", pitches.ErrNotWriter)
		return
	}
	list, err := h.pitches.Mine(c.Request.Context(), w.ID)
	if err != nil {
		fail(c, "list pitches", err)
		return
	}
	httpx.OK(c, http.StatusOK, "pitches fetched", gin.H{"pitches": list})
}

func (h *PitchHandler) List(c *gin.Context) {
	page, skip, limit := pageParams(c)
	list, total, err := h.pitches.List(c.Request.Context(), pitches.Status(c.Query("status")), skip, limit)
	if err != nil {
		fail(c, "list pitches", err)
		return
	}
	httpx.OK(c, http.StatusOK, "pitches fetched", gin.H{"pitches": list, "total": total, "page": page, "limit": limit})
}

func (h *PitchHandler) Review(c *gin.Context) {
	var req pitches.ReviewInput
	if !httpx.BindJSON(c, &req) {
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	out, err := h.pitches.Review(c.Request.Context(), c.Param("id"), p.Email, req)
	if err != nil {
		fail(c, "pitch review", err)
		return
	}
	httpx.OK(c, http.StatusOK, "pitch reviewed", gin.H{"pitch": out})
}
