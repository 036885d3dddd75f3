package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/models"
	"github.com/quillpress/quillpress/internal/sessions"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/logger"
)

// AdminUsersHandler moderates accounts.
type AdminUsersHandler struct {
	users    *users.Service
	sessions *sessions.Service
}

func NewAdminUsersHandler(u *users.Service, s *sessions.Service) *AdminUsersHandler {
	return &AdminUsersHandler{users: u, sessions: s}
}

// Register expects an admin-only group.
func (h *AdminUsersHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/users", h.List)
	rg.PATCH("/users/:id", h.Update)
}

func (h *AdminUsersHandler) List(c *gin.Context) {
	page, skip, limit := pageParams(c)
	list, total, err := h.users.List(c.Request.Context(), users.ListFilter{Query: c.Query("q"), Skip: skip, Limit: limit})
	if err != nil {
		fail(c, "list users", err)
		return
	}
	out := make([]*domain.User, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	httpx.OK(c, http.StatusOK, "users fetched", gin.H{"users": out, "total": total, "page": page, "limit": limit})
}

// Update changes role and flags. A role change ends the account's refresh
// sessions so the next token carries the new role.
func (h *AdminUsersHandler) Update(c *gin.Context) {
	var req users.AdminUpdate
	if !httpx.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	var before *models.User
	if req.Role != nil {
		var err error
		if before, err = h.users.GetByID(ctx, id); err != nil {
			fail(c, "user lookup", err)
			return
		}
	}
	u, err := h.users.AdminUpdate(ctx, id, req)
	if err != nil {
		fail(c, "user update", err)
		return
	}
	if before != nil && before.Role != u.Role {
		if err := h.sessions.RevokeAll(ctx, u.ID); err != nil {
			logger.Warnf("revoke sessions for %s after role change: %v", u.Email, err)
		}
	}
	httpx.OK(c, http.StatusOK, "user updated", gin.H{"user": u.Public()})
}
