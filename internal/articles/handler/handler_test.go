package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/articles/service"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/middleware"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func asUser(sub string, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, &middleware.Principal{Subject: sub, Email: sub + "@example.com", Role: role})
		c.Next()
	}
}

func newEngine() *gin.Engine {
	g := gin.New()
	h := New(service.NewMemoryService(), nil)
	api := g.Group("/api")
	h.RegisterPublic(api, asUser("reader", domain.RoleUser))
	admin := api.Group("/admin", asUser("admin", domain.RoleAdmin), middleware.RequireAdmin())
	h.RegisterAdmin(admin)
	return g
}

func do(g *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	var m map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	return w, m
}

func TestArticleHandler_Lifecycle(t *testing.T) {
	g := newEngine()

	w, m := do(g, http.MethodPost, "/api/admin/articles", `{"title":"Hello World","body":"hi","tags":["Go"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, true, m["success"])
	art := m["article"].(map[string]interface{})
	id := art["_id"].(string)
	require.Equal(t, "hello-world", art["slug"])
	require.Equal(t, "draft", art["status"])

	w, _ = do(g, http.MethodPost, "/api/admin/articles", `{"title":"hello world"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	// drafts are invisible to readers
	w, _ = do(g, http.MethodGet, "/api/articles/hello-world", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w, m = do(g, http.MethodPatch, "/api/admin/articles/"+id, `{"status":"published","featured":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, m["article"].(map[string]interface{})["publishedAt"])

	w, m = do(g, http.MethodGet, "/api/articles/hello-world", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, m["article"].(map[string]interface{})["views"])

	w, m = do(g, http.MethodGet, "/api/articles?tag=go&limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, m["total"])
	require.EqualValues(t, 50, m["limit"])

	w, m = do(g, http.MethodGet, "/api/articles/featured", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m["articles"], 1)

	w, m = do(g, http.MethodPost, "/api/articles/"+id+"/like", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, m["likes"])
	_, m = do(g, http.MethodPost, "/api/articles/"+id+"/like", "")
	require.EqualValues(t, 1, m["likes"])

	w, _ = do(g, http.MethodPatch, "/api/admin/articles/"+id, `{"status":"bogus"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(g, http.MethodDelete, "/api/admin/articles/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(g, http.MethodDelete, "/api/admin/articles/"+id, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticleHandler_AdminRequiresRole(t *testing.T) {
	g := gin.New()
	h := New(service.NewMemoryService(), nil)
	admin := g.Group("/api/admin", asUser("reader", domain.RoleUser), middleware.RequireAdmin())
	h.RegisterAdmin(admin)

	w, m := do(g, http.MethodPost, "/api/admin/articles", `{"title":"x"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, false, m["success"])
}

func TestArticleHandler_HugePage(t *testing.T) {
	g := newEngine()
	w, _ := do(g, http.MethodPost, "/api/admin/articles", `{"title":"Only One","body":"hi","status":"published"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, m := do(g, http.MethodGet, "/api/articles?page=9223372036854775807", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, m["success"])
	require.Empty(t, m["articles"])
	require.EqualValues(t, 1, m["total"])
}
