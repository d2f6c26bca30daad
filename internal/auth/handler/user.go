package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/logger"
	"github.com/jsimonrichard/sceideal/internal/middleware"
)

// getUser returns the signed-in user's account.
func (h *Handler) getUser(c *gin.Context) {
	user, _ := middleware.UserFrom(c)
	c.JSON(http.StatusOK, user)
}

// logout destroys the session and returns the provider's RP-initiated
// logout URL when one of the session's providers still has an open
// single-sign-on session, or null otherwise. The frontend follows the
// URL to end that upstream session too.
func (h *Handler) logout(c *gin.Context) {
	data, ok, err := h.sessions.Destroy(c.Writer, c.Request)
	if err != nil {
		logger.Errorw("session destroy failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var logoutURL *string
	if ok {
		if name, found := data.RPLogoutProvider(); found {
			if client, ok := h.providers.Get().Get(name); ok {
				if u, ok := client.LogoutURL(h.cfg.Get().BaseURL); ok {
					logoutURL = &u
				}
			}
		}
	}

	c.JSON(http.StatusOK, logoutURL)
}

type publicProvider struct {
	IssuerURL string `json:"issuer_url"`
}

type publicConfig struct {
	RedirectToFirstOAuthProvider bool                      `json:"redirect_to_first_oauth_provider"`
	OAuthProviders               map[string]publicProvider `json:"oauth_providers"`
}

// getConfig exposes the non-secret configuration the frontend needs to
// render its login options.
func (h *Handler) getConfig(c *gin.Context) {
	cfg := h.cfg.Get()

	providers := make(map[string]publicProvider, len(cfg.Providers))
	for name, p := range cfg.Providers {
		providers[name] = publicProvider{IssuerURL: p.IssuerURL}
	}

	c.JSON(http.StatusOK, publicConfig{
		RedirectToFirstOAuthProvider: cfg.RedirectToFirstOAuthProvider,
		OAuthProviders:               providers,
	})
}
