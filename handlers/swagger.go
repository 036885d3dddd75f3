package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a Swagger UI page and the OpenAPI document.
//   - GET /swagger/index.html
//   - GET /swagger/doc.json
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>quillpress API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "quillpress", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": { "post": { "summary": "Create an account", "responses": { "200": { "description": "envelope" } } } },
    "/api/auth/login": { "post": { "summary": "Log in with email and password", "responses": { "200": { "description": "envelope" } } } },
    "/api/auth/refresh": { "post": { "summary": "Exchange a refresh token for an access token", "responses": { "200": { "description": "envelope" } } } },
    "/api/auth/logout": { "post": { "summary": "End the session and revoke the bearer token", "responses": { "200": { "description": "envelope" } } } },
    "/api/auth/me": { "get": { "summary": "Current user record", "responses": { "200": { "description": "envelope" } } } },
    "/api/profile": { "get": { "summary": "Profile by email", "responses": { "200": { "description": "envelope" } } }, "patch": { "summary": "Partial profile update", "responses": { "200": { "description": "envelope" } } } },
    "/api/subscribe": { "post": { "summary": "Subscribe to the newsletter", "responses": { "200": { "description": "envelope" } } }, "delete": { "summary": "Unsubscribe", "responses": { "200": { "description": "envelope" } } } },
    "/api/articles": { "get": { "summary": "Published articles", "responses": { "200": { "description": "envelope" } } } },
    "/api/articles/featured": { "get": { "summary": "Featured articles", "responses": { "200": { "description": "envelope" } } } },
    "/api/articles/{key}": { "get": { "summary": "Published article by slug", "responses": { "200": { "description": "envelope" } } } },
    "/api/articles/{key}/like": { "post": { "summary": "Like an article", "responses": { "200": { "description": "envelope" } } } },
    "/api/pitches": { "post": { "summary": "Submit a pitch", "responses": { "200": { "description": "envelope" } } } },
    "/api/pitches/mine": { "get": { "summary": "Own pitches", "responses": { "200": { "description": "envelope" } } } },
    "/api/settings": { "get": { "summary": "Public site settings", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/users": { "get": { "summary": "List users", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/users/{id}": { "patch": { "summary": "Change role and flags", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/articles": { "get": { "summary": "List all articles", "responses": { "200": { "description": "envelope" } } }, "post": { "summary": "Create an article", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/articles/{id}": { "patch": { "summary": "Update an article", "responses": { "200": { "description": "envelope" } } }, "delete": { "summary": "Delete an article", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/pitches": { "get": { "summary": "List pitches by status", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/pitches/{id}": { "patch": { "summary": "Review a pitch", "responses": { "200": { "description": "envelope" } } } },
    "/api/admin/settings": { "put": { "summary": "Update site settings", "responses": { "200": { "description": "envelope" } } } },
    "/health": { "get": { "summary": "Liveness", "responses": { "200": { "description": "envelope" } } } },
    "/ready": { "get": { "summary": "Readiness", "responses": { "200": { "description": "envelope" } } } }
  }
}`
