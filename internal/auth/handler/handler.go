// Package handler implements the HTTP surface of the auth flows: the
// OpenID Connect login/sign-up callback, the OAuth2 account-linking
// callback, local credential login, and session logout.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/auth/credentials"
	"github.com/jsimonrichard/sceideal/internal/auth/provider"
	"github.com/jsimonrichard/sceideal/internal/config"
	"github.com/jsimonrichard/sceideal/internal/csrf"
	"github.com/jsimonrichard/sceideal/internal/middleware"
	"github.com/jsimonrichard/sceideal/internal/session"
	"github.com/jsimonrichard/sceideal/internal/users"
)

type Handler struct {
	providers   *provider.Live
	cfg         *config.Live
	sessions    *session.Manager
	users       users.Store
	credentials *credentials.Service

	// Pending authorization round trips, one cache per flow. Login
	// states carry the OIDC nonce; link states carry the requesting
	// user and the provision being linked.
	loginStates *csrf.Cache
	linkStates  *csrf.Cache
}

func NewHandler(
	providers *provider.Live,
	cfg *config.Live,
	sessions *session.Manager,
	userStore users.Store,
	credentialService *credentials.Service,
	loginStates *csrf.Cache,
	linkStates *csrf.Cache,
) *Handler {
	return &Handler{
		providers:   providers,
		cfg:         cfg,
		sessions:    sessions,
		users:       userStore,
		credentials: credentialService,
		loginStates: loginStates,
		linkStates:  linkStates,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth *middleware.Auth) {
	api := r.Group("/api")

	api.GET("/config", h.getConfig)

	openid := api.Group("/openid")
	openid.GET("/:provider/generate_url", h.openIDGenerateURL)
	openid.GET("/:provider/callback", auth.LoadUser(), h.openIDCallback)

	oauth := api.Group("/oauth", auth.RequireUser())
	oauth.GET("/:provider/generate_url/:provides", h.oauthGenerateURL)
	oauth.GET("/:provider/callback", h.oauthCallback)

	user := api.Group("/user")
	user.GET("", auth.RequireUser(), h.getUser)
	user.POST("/logout", h.logout)
	user.POST("/local/login", h.login)
	user.POST("/local/register", h.register)
}
