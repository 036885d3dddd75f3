package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/logger"
)

const principalKey = "principal"

// Principal is the verified identity behind a bearer token.
type Principal struct {
	Subject   string
	Email     string
	Role      domain.Role
	IsWriter  bool
	Token     string
	ExpiresAt time.Time
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == domain.RoleAdmin }

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Principal, error)
}

// RevocationChecker reports revoked access tokens. Optional.
type RevocationChecker interface {
	Contains(ctx context.Context, token string) (bool, error)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authenticate(c *gin.Context, ver Verifier, revoked RevocationChecker) (*Principal, int, string) {
	if c.GetHeader("Authorization") == "" {
		return nil, http.StatusUnauthorized, "missing Authorization header"
	}
	token, ok := BearerToken(c)
	if !ok {
		return nil, http.StatusUnauthorized, "invalid Authorization header"
	}
	if revoked != nil {
		hit, err := revoked.Contains(c.Request.Context(), token)
		if err != nil {
			logger.Warnf("token revocation check failed: %v", err)
		} else if hit {
			return nil, http.StatusUnauthorized, "token revoked"
		}
	}
	p, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		logger.Debugf("token rejected: %v", err)
		return nil, http.StatusUnauthorized, "invalid token"
	}
	p.Token = token
	return p, 0, ""
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, status, msg := authenticate(c, ver, revoked)
		if p == nil {
			abort(c, status, msg)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalAuth sets the principal when a valid token is present and never rejects.
func OptionalAuth(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, _, _ := authenticate(c, ver, revoked); p != nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.IsAdmin() {
			abort(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the identity set by AuthMiddleware or OptionalAuth.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// SetPrincipal is used by tests and internal wiring.
func SetPrincipal(c *gin.Context, p *Principal) { c.Set(principalKey, p) }
