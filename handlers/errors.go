package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/articles"
	"github.com/quillpress/quillpress/internal/pitches"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/httpx"
)

// fail maps domain errors onto the envelope. action names the operation in
// 500 messages.
func fail(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, pitches.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "pitch not found", nil)
	case errors.Is(err, articles.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "article not found", nil)
	case errors.Is(err, users.ErrDuplicateEmail):
		httpx.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, users.ErrInvalidCredentials):
		httpx.Error(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, pitches.ErrDisabled), errors.Is(err, pitches.ErrNotWriter):
		httpx.Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, users.ErrInvalid), errors.Is(err, pitches.ErrInvalid), errors.Is(err, settings.ErrInvalid):
		httpx.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		httpx.Error(c, http.StatusInternalServerError, action+" failed", err)
	}
}

func pageParams(c *gin.Context) (page int, skip, limit int64) {
	page = httpx.QueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	skip, limit = articles.Page(page, httpx.QueryInt(c, "limit", 0), articles.DefaultPageSize)
	return page, skip, limit
}
