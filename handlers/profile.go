package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/models"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/middleware"
)

type ProfileHandler struct {
	users *users.Service
}

func NewProfileHandler(u *users.Service) *ProfileHandler { return &ProfileHandler{users: u} }

// Register mounts the profile and subscription routes behind auth.
func (h *ProfileHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/profile", auth, h.Get)
	rg.PATCH("/profile", auth, h.Update)
	rg.POST("/subscribe", auth, h.Subscribe)
	rg.DELETE("/subscribe", auth, h.Unsubscribe)
}

// publicProfile is what other members may see of an account.
func publicProfile(u *models.User) gin.H {
	return gin.H{
		"_id":       u.ID,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"isWriter":  u.IsWriter,
		"profile":   u.Profile,
		"createdAt": u.CreatedAt,
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	email := users.NormalizeEmail(c.Query("email"))
	if email == "" {
		email = users.NormalizeEmail(p.Email)
	}
	u, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		fail(c, "profile lookup", err)
		return
	}
	if email == users.NormalizeEmail(p.Email) || p.IsAdmin() {
		httpx.OK(c, http.StatusOK, "profile fetched", gin.H{"user": u.Public()})
		return
	}
	httpx.OK(c, http.StatusOK, "profile fetched", gin.H{"user": publicProfile(u)})
}

// Update applies a partial edit to the caller's own account.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req users.ProfileUpdate
	if !httpx.BindJSON(c, &req) {
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.users.UpdateProfile(c.Request.Context(), p.Email, req)
	if err != nil {
		fail(c, "profile update", err)
		return
	}
	httpx.OK(c, http.StatusOK, "profile updated", gin.H{"user": u.Public()})
}

func (h *ProfileHandler) setSubscription(c *gin.Context, on bool, msg string) {
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.users.SetSubscription(c.Request.Context(), p.Subject, on)
	if err != nil {
		fail(c, "subscription update", err)
		return
	}
	httpx.OK(c, http.StatusOK, msg, gin.H{"user": u.Public()})
}

func (h *ProfileHandler) Subscribe(c *gin.Context)   { h.setSubscription(c, true, "subscribed") }
func (h *ProfileHandler) Unsubscribe(c *gin.Context) { h.setSubscription(c, false, "unsubscribed") }
