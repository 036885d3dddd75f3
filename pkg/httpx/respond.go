// Package httpx holds the JSON envelope shared by every route.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/pkg/logger"
)

// OK writes {"success":true,"message":...} merged with data.
func OK(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error writes {"success":false,"message":...}. Server errors also carry the
// diagnostic in "error" and are logged.
func Error(c *gin.Context, status int, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if status >= http.StatusInternalServerError {
		if err != nil {
			body["error"] = err.Error()
		}
		logger.Errorf("%s %s: %s: %v", c.Request.Method, c.FullPath(), message, err)
	}
	c.AbortWithStatusJSON(status, body)
}

// BindJSON decodes the body into v, answering 400 on failure.
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

// QueryInt parses an integer query parameter, returning def when absent or malformed.
func QueryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
