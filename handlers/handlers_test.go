package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	articleservice "github.com/quillpress/quillpress/internal/articles/service"
	"github.com/quillpress/quillpress/internal/pitches"
	"github.com/quillpress/quillpress/internal/sessions"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/tokens"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type harness struct {
	t        *testing.T
	g        *gin.Engine
	users    *users.Service
	settings *settings.MemoryStore
	redis    *mr.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userSvc := users.NewService(users.NewMemoryRepository(), users.WithCost(bcrypt.MinCost))
	_, err = userSvc.SeedAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	st := settings.NewMemoryStore()
	g := gin.New()
	Mount(g, Deps{
		Users:      userSvc,
		Sessions:   sessions.NewService(sessions.NewRedisRepository(rdb, "")),
		Articles:   articleservice.NewMemoryService(),
		Pitches:    pitches.NewService(pitches.NewMemoryRepository()),
		Settings:   st,
		Issuer:     tokens.NewIssuer("test-secret", 15*time.Minute),
		Blacklist:  sessions.NewBlacklist(rdb),
		RefreshTTL: time.Hour,
	})
	return &harness{t: t, g: g, users: userSvc, settings: st, redis: m}
}

type response struct {
	Code int
	Body map[string]interface{}
}

func (r response) str(key string) string {
	s, _ := r.Body[key].(string)
	return s
}

func (r response) obj(key string) map[string]interface{} {
	o, _ := r.Body[key].(map[string]interface{})
	return o
}

func (h *harness) do(method, path, token, body string) response {
	h.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.g.ServeHTTP(w, req)
	var m map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	return response{Code: w.Code, Body: m}
}

func (h *harness) register(email string) {
	h.t.Helper()
	r := h.do(http.MethodPost, "/api/auth/register", "", `{"email":"`+email+`","password":"password123","firstName":"Ada","lastName":"Lovelace"}`)
	require.Equal(h.t, http.StatusCreated, r.Code, r.Body)
}

// login returns the access and refresh tokens.
func (h *harness) login(email, password string) (string, string) {
	h.t.Helper()
	r := h.do(http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(h.t, http.StatusOK, r.Code, r.Body)
	return r.str("accessToken"), r.str("refreshToken")
}

func (h *harness) member(email string) (id, token string) {
	h.t.Helper()
	h.register(email)
	token, _ = h.login(email, "password123")
	r := h.do(http.MethodGet, "/api/auth/me", token, "")
	require.Equal(h.t, http.StatusOK, r.Code)
	return r.obj("user")["_id"].(string), token
}

func (h *harness) admin() string {
	h.t.Helper()
	token, _ := h.login(adminEmail, adminPassword)
	return token
}
