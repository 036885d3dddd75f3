package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/quillpress/quillpress/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com")

	r := h.do(http.MethodPost, "/api/auth/login", "", `{"email":"ADA@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, true, r.Body["success"])
	access, refresh := r.str("accessToken"), r.str("refreshToken")
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	user := r.obj("user")
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, access, user["token"])
	assert.NotContains(t, user, "password")

	r = h.do(http.MethodGet, "/api/auth/me?email=ada@example.com", access, "")
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Ada", r.obj("user")["firstName"])

	r = h.do(http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, r.Code)
	assert.NotEmpty(t, r.str("accessToken"))

	r = h.do(http.MethodPost, "/api/auth/logout", access, `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, r.Code)

	r = h.do(http.MethodGet, "/api/auth/me", access, "")
	assert.Equal(t, http.StatusUnauthorized, r.Code, "blacklisted token is rejected")
	r = h.do(http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
}

func TestRegister_Errors(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com")

	r := h.do(http.MethodPost, "/api/auth/register", "", `{"email":"ada@example.com","password":"password123","firstName":"A","lastName":"B"}`)
	assert.Equal(t, http.StatusConflict, r.Code)
	assert.Equal(t, false, r.Body["success"])

	r = h.do(http.MethodPost, "/api/auth/register", "", `{"email":"nope","password":"password123","firstName":"A","lastName":"B"}`)
	assert.Equal(t, http.StatusBadRequest, r.Code)

	r = h.do(http.MethodPost, "/api/auth/register", "", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, r.Code)

	closed := false
	_, err := h.settings.Update(context.Background(), settings.Patch{AllowRegistration: &closed})
	require.NoError(t, err)
	r = h.do(http.MethodPost, "/api/auth/register", "", `{"email":"late@example.com","password":"password123","firstName":"A","lastName":"B"}`)
	assert.Equal(t, http.StatusForbidden, r.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com")
	r := h.do(http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"guess"}`)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	r = h.do(http.MethodPost, "/api/auth/login", "", `{"email":"ghost@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Nil(t, r.Body["error"], "4xx responses carry no diagnostic")
}

func TestMe_EmailMustMatchToken(t *testing.T) {
	h := newHarness(t)
	_, ada := h.member("ada@example.com")
	h.register("bob@example.com")

	r := h.do(http.MethodGet, "/api/auth/me?email=bob@example.com", ada, "")
	assert.Equal(t, http.StatusForbidden, r.Code)

	r = h.do(http.MethodGet, "/api/auth/me?email=bob@example.com", "", "")
	assert.Equal(t, http.StatusUnauthorized, r.Code)

	admin := h.admin()
	r = h.do(http.MethodGet, "/api/auth/me?email=bob@example.com", admin, "")
	assert.Equal(t, http.StatusOK, r.Code)
	r = h.do(http.MethodGet, "/api/auth/me?email=ghost@example.com", admin, "")
	assert.Equal(t, http.StatusNotFound, r.Code)
}

func TestLogout_AllRevokesEverySession(t *testing.T) {
	h := newHarness(t)
	h.register("ada@example.com")
	access, first := h.login("ada@example.com", "password123")
	_, second := h.login("ada@example.com", "password123")

	r := h.do(http.MethodPost, "/api/auth/logout", access, `{"all":true}`)
	require.Equal(t, http.StatusOK, r.Code)

	for _, rt := range []string{first, second} {
		r = h.do(http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+rt+`"}`)
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	}
}

func TestLogout_WithoutBody(t *testing.T) {
	h := newHarness(t)
	r := h.do(http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, r.Code)
}
