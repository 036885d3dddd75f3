package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/articles"
	"github.com/quillpress/quillpress/internal/articles/service"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/middleware"
)

// Limits reports the site's page size and featured count.
type Limits func(ctx context.Context) (perPage, featured int)

type Handler struct {
	svc    *service.Service
	limits Limits
}

func New(svc *service.Service, limits Limits) *Handler {
	if limits == nil {
		limits = func(context.Context) (int, int) { return articles.DefaultPageSize, 3 }
	}
	return &Handler{svc: svc, limits: limits}
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, articles.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "article not found", nil)
	case errors.Is(err, articles.ErrDuplicateSlug):
		httpx.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, articles.ErrInvalid):
		httpx.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		httpx.Error(c, http.StatusInternalServerError, "article operation failed", err)
	}
}

// RegisterPublic mounts the reader routes. auth guards liking.
func (h *Handler) RegisterPublic(g *gin.RouterGroup, auth gin.HandlerFunc) {
	g.GET("/articles", h.list)
	g.GET("/articles/featured", h.featured)
	g.GET("/articles/:key", h.view)
	g.POST("/articles/:key/like", auth, h.like)
}

// RegisterAdmin mounts the moderation routes on an admin-only group.
func (h *Handler) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/articles", h.adminList)
	g.POST("/articles", h.create)
	g.PATCH("/articles/:id", h.update)
	g.DELETE("/articles/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	perPage, _ := h.limits(c.Request.Context())
	q := service.Query{
		Page:     httpx.QueryInt(c, "page", 1),
		Limit:    httpx.QueryInt(c, "limit", 0),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Text:     c.Query("q"),
	}
	list, total, err := h.svc.ListPublished(c.Request.Context(), q, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	_, limit := articles.Page(q.Page, q.Limit, perPage)
	page := q.Page
	if page < 1 {
		page = 1
	}
	httpx.OK(c, http.StatusOK, "articles fetched", gin.H{"articles": list, "total": total, "page": page, "limit": limit})
}

func (h *Handler) featured(c *gin.Context) {
	_, n := h.limits(c.Request.Context())
	list, err := h.svc.Featured(c.Request.Context(), n)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "featured articles fetched", gin.H{"articles": list})
}

func (h *Handler) view(c *gin.Context) {
	a, err := h.svc.View(c.Request.Context(), c.Param("key"))
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "article fetched", gin.H{"article": a})
}

func (h *Handler) like(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	a, err := h.svc.Like(c.Request.Context(), c.Param("key"), p.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "article liked", gin.H{"likes": len(a.LikedBy)})
}

func (h *Handler) adminList(c *gin.Context) {
	list, total, err := h.svc.ListAll(c.Request.Context(), articles.Status(c.Query("status")),
		httpx.QueryInt(c, "page", 1), httpx.QueryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "articles fetched", gin.H{"articles": list, "total": total})
}

func (h *Handler) create(c *gin.Context) {
	var in service.CreateInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	a, err := h.svc.Create(c.Request.Context(), service.Author{ID: p.Subject, Name: p.Email}, in)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "article created", gin.H{"article": a})
}

func (h *Handler) update(c *gin.Context) {
	var patch articles.Patch
	if !httpx.BindJSON(c, &patch) {
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "article updated", gin.H{"article": a})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "article deleted", nil)
}
