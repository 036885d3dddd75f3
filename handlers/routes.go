package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/quillpress/internal/articles"
	articlehandler "github.com/quillpress/quillpress/internal/articles/handler"
	articleservice "github.com/quillpress/quillpress/internal/articles/service"
	"github.com/quillpress/quillpress/internal/pitches"
	"github.com/quillpress/quillpress/internal/sessions"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/tokens"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/middleware"
)

// Deps is everything the API routes need. DB may be nil, which drops /ready.
type Deps struct {
	Users      *users.Service
	Sessions   *sessions.Service
	Articles   *articleservice.Service
	Pitches    *pitches.Service
	Settings   settings.Store
	Issuer     *tokens.Issuer
	Blacklist  *sessions.Blacklist
	RefreshTTL time.Duration
	DB         Pinger
}

// Mount registers every route on g.
func Mount(g *gin.Engine, d Deps) {
	auth := middleware.AuthMiddleware(d.Issuer, d.Blacklist)
	optional := middleware.OptionalAuth(d.Issuer, d.Blacklist)
	gate := MaintenanceGate(d.Settings)

	api := g.Group("/api")
	NewAuthHandler(d.Users, d.Sessions, d.Issuer, d.Blacklist, d.Settings, d.RefreshTTL).Register(api, auth, optional, gate)
	NewProfileHandler(d.Users).Register(api, auth)

	st := NewSettingsHandler(d.Settings)
	st.RegisterPublic(api)

	arts := articlehandler.New(d.Articles, func(ctx context.Context) (int, int) {
		s, err := d.Settings.Get(ctx)
		if err != nil {
			return articles.DefaultPageSize, settings.Defaults().FeaturedLimit
		}
		return s.ArticlesPerPage, s.FeaturedLimit
	})
	arts.RegisterPublic(api, auth)

	ph := NewPitchHandler(d.Pitches, d.Users, d.Settings)
	ph.Register(api, auth, gate)

	admin := api.Group("/admin", auth, middleware.RequireAdmin())
	NewAdminUsersHandler(d.Users, d.Sessions).Register(admin)
	arts.RegisterAdmin(admin)
	ph.RegisterAdmin(admin)
	st.RegisterAdmin(admin)

	if d.DB != nil {
		RegisterHealth(g, d.DB)
	}
	RegisterSwagger(g)
}
