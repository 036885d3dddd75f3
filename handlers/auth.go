package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/sessions"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/tokens"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/httpx"
	"github.com/quillpress/quillpress/pkg/logger"
	"github.com/quillpress/quillpress/pkg/middleware"
)

// TokenBlacklist revokes access tokens until they expire.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users      *users.Service
	sessions   *sessions.Service
	issuer     *tokens.Issuer
	blacklist  TokenBlacklist
	settings   settings.Store
	refreshTTL time.Duration
}

func NewAuthHandler(u *users.Service, s *sessions.Service, issuer *tokens.Issuer, bl TokenBlacklist, st settings.Store, refreshTTL time.Duration) *AuthHandler {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{users: u, sessions: s, issuer: issuer, blacklist: bl, settings: st, refreshTTL: refreshTTL}
}

// Register mounts the routes under /auth. auth guards /me, optional feeds /logout.
func (h *AuthHandler) Register(rg *gin.RouterGroup, auth, optional gin.HandlerFunc, gates ...gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", append(gates, h.SignUp)...)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", optional, h.Logout)
	a.GET("/me", auth, h.Me)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.settings.Get(ctx)
	if err != nil {
		fail(c, "load settings", err)
		return
	}
	if !st.AllowRegistration {
		httpx.Error(c, http.StatusForbidden, "registration is closed", nil)
		return
	}
	var req RegisterRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	u, err := h.users.Register(ctx, users.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		fail(c, "registration", err)
		return
	}
	httpx.OK(c, http.StatusCreated, "account created", gin.H{"user": u.Public()})
}

// Login checks the password and issues an access token plus a refresh session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		fail(c, "login", err)
		return
	}
	rft, err := h.sessions.CreateSession(ctx, u.ID, h.refreshTTL)
	if err != nil {
		fail(c, "create session", err)
		return
	}
	access, err := h.issuer.GenerateAccessToken(u)
	if err != nil {
		fail(c, "create access token", err)
		return
	}
	rec := u.Public()
	rec.Token = access
	httpx.OK(c, http.StatusOK, "logged in", gin.H{
		"user":         rec,
		"accessToken":  access,
		"refreshToken": rft,
		"expiresIn":    int(h.issuer.TTL().Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if !httpx.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	sess, err := h.sessions.ValidateRefresh(ctx, req.RefreshToken)
	if err != nil {
		fail(c, "refresh validation", err)
		return
	}
	if sess == nil {
		httpx.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	u, err := h.users.GetByID(ctx, sess.Sub)
	if err != nil {
		fail(c, "user lookup", err)
		return
	}
	access, err := h.issuer.GenerateAccessToken(u)
	if err != nil {
		fail(c, "create access token", err)
		return
	}
	httpx.OK(c, http.StatusOK, "token refreshed", gin.H{"accessToken": access, "expiresIn": int(h.issuer.TTL().Seconds())})
}

// Logout drops the refresh session and blacklists the bearer token if one was
// sent. With "all" every session of the caller ends.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
		All          bool   `json:"all"`
	}
	if c.Request.ContentLength != 0 && !httpx.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	p, authed := middleware.PrincipalFrom(c)
	if authed && h.blacklist != nil {
		if err := h.blacklist.Add(ctx, p.Token, time.Until(p.ExpiresAt)); err != nil {
			fail(c, "blacklist access token", err)
			return
		}
	}
	if req.RefreshToken != "" {
		if err := h.sessions.DeleteRefresh(ctx, req.RefreshToken); err != nil {
			fail(c, "remove session", err)
			return
		}
	}
	if authed && req.All {
		if err := h.sessions.RevokeAll(ctx, p.Subject); err != nil {
			fail(c, "revoke sessions", err)
			return
		}
		logger.Infof("all sessions revoked for %s", p.Email)
	}
	httpx.OK(c, http.StatusOK, "logged out", nil)
}

// Me answers the "who am I" query. The email must match the token unless the
// caller is an admin; without ?email= the caller's own record is returned.
func (h *AuthHandler) Me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	email := users.NormalizeEmail(c.Query("email"))
	if email == "" {
		email = p.Email
	}
	if email != users.NormalizeEmail(p.Email) && !p.IsAdmin() {
		httpx.Error(c, http.StatusForbidden, "email does not match the authenticated user", nil)
		return
	}
	u, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		fail(c, "user lookup", err)
		return
	}
	httpx.OK(c, http.StatusOK, "user fetched", gin.H{"user": u.Public()})
}
