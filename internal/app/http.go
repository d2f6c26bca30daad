package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/auth/credentials"
	"github.com/jsimonrichard/sceideal/internal/auth/handler"
	"github.com/jsimonrichard/sceideal/internal/auth/provider"
	"github.com/jsimonrichard/sceideal/internal/config"
	"github.com/jsimonrichard/sceideal/internal/csrf"
	"github.com/jsimonrichard/sceideal/internal/logger"
	"github.com/jsimonrichard/sceideal/internal/middleware"
	"github.com/jsimonrichard/sceideal/internal/session"
	"github.com/jsimonrichard/sceideal/internal/users"
)

func setupHTTP(ctx context.Context, cfg *config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore, closeSessions := infra.sessionStore()
	sessions := session.NewManager(sessionStore, cfg.Session.TTL.Duration(), cfg.Production())

	loginStates := csrf.New(cfg.CSRF.OpenIDTTL.Duration())
	linkStates := csrf.New(cfg.CSRF.OAuthTTL.Duration())

	userStore := users.NewPostgresStore(infra.db)
	credentialService := credentials.NewService(userStore)

	liveConfig := config.NewLive(cfg)
	liveProviders := provider.NewLive(provider.Build(ctx, cfg))

	var watcher *config.Watcher
	if cfg.LiveReloading {
		watcher, err = config.Watch(config.Path(), func(next *config.Config) {
			// Provider clients derive from config; rebuild them with
			// every successful reload and swap both atomically.
			liveProviders.Set(provider.Build(context.Background(), next))
			liveConfig.Set(next)
			logger.Infow("configuration reloaded", "providers", liveProviders.Get().Names())
		})
		if err != nil {
			closeSessions()
			_ = infra.close()
			return nil, nil, err
		}
	}

	authHandler := handler.NewHandler(
		liveProviders,
		liveConfig,
		sessions,
		userStore,
		credentialService,
		loginStates,
		linkStates,
	)

	authMiddleware := middleware.NewAuth(sessions, userStore)

	// ----------------------------
	// Router
	// ----------------------------

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.RegisterRoutes(router, authMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	cleanup := func() error {
		if watcher != nil {
			watcher.Stop()
		}
		loginStates.Close()
		linkStates.Close()
		closeSessions()
		return infra.close()
	}

	return router, cleanup, nil
}
