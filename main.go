package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quillpress/quillpress/handlers"
	articlerepo "github.com/quillpress/quillpress/internal/articles/repository"
	articleservice "github.com/quillpress/quillpress/internal/articles/service"
	"github.com/quillpress/quillpress/internal/config"
	"github.com/quillpress/quillpress/internal/database"
	"github.com/quillpress/quillpress/internal/pitches"
	"github.com/quillpress/quillpress/internal/sessions"
	"github.com/quillpress/quillpress/internal/settings"
	"github.com/quillpress/quillpress/internal/tokens"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/pkg/logger"
	"github.com/quillpress/quillpress/pkg/metrics"
	"github.com/quillpress/quillpress/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		logger.Fatalf("JWT_SECRET is required")
	}
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot, err := database.NewBootstrapper(cfg.MongoDB)
	if err != nil {
		logger.Fatalf("database configuration: %v", err)
	}
	db, err := boot.Acquire(ctx)
	if err != nil {
		logger.Fatalf("database unavailable: %v", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.Close(cctx); err != nil {
			logger.Warnf("closing database: %v", err)
		}
	}()

	userRepo := users.NewMongoUserRepository(db.Collection("users"))
	articleRepo := articlerepo.NewMongoRepo(db.Collection("articles"))
	pitchRepo := pitches.NewMongoRepository(db.Collection("pitches"))
	indexers := map[string]interface{ EnsureIndexes(context.Context) error }{
		"users":    userRepo,
		"articles": articleRepo,
		"pitches":  pitchRepo,
	}

	rdb := connectRedis(ctx, cfg.Redis)
	var sessionRepo sessions.Repository
	if rdb != nil {
		sessionRepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("refresh sessions stored in Redis")
	} else {
		mongoSessions := sessions.NewMongoRepository(db.Collection("sessions"))
		indexers["sessions"] = mongoSessions
		sessionRepo = mongoSessions
	}
	for name, ix := range indexers {
		if err := ix.EnsureIndexes(ctx); err != nil {
			logger.Warnf("ensure %s indexes: %v", name, err)
		}
	}

	userSvc := users.NewService(userRepo)
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := userSvc.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Errorf("admin seed: %v", err)
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.CountRequests())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handlers.Mount(r, handlers.Deps{
		Users:      userSvc,
		Sessions:   sessions.NewService(sessionRepo),
		Articles:   articleservice.New(articleRepo),
		Pitches:    pitches.NewService(pitchRepo),
		Settings:   settings.NewMongoStore(db.Collection("settings")),
		Issuer:     tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL),
		Blacklist:  sessions.NewBlacklist(rdb),
		RefreshTTL: cfg.JWT.RefreshTokenTTL,
		DB:         db,
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("quillpress listening on %s (database %s)", srv.Addr, db.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infof("shutting down")
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		logger.Errorf("server: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		logger.Warnf("redis %s unreachable, continuing without it: %v", addr, err)
		_ = c.Close()
		return nil
	}
	logger.Infof("connected to redis %s", addr)
	return c
}
