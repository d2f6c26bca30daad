package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/auth/provider"
	"github.com/jsimonrichard/sceideal/internal/csrf"
	"github.com/jsimonrichard/sceideal/internal/middleware"
	"github.com/jsimonrichard/sceideal/internal/users"
)

// oauthGenerateURL starts a plain OAuth2 account-linking flow for one
// non-auth provision (calendar access, for example). The caller must be
// signed in; the state token pins the flow to their user id.
func (h *Handler) oauthGenerateURL(c *gin.Context) {
	provides := c.Param("provides")
	if provides == provider.ProvisionAuth {
		c.Status(http.StatusNotFound)
		return
	}

	client, ok := h.providers.Get().Get(c.Param("provider"))
	if !ok || client.OpenID() || !client.Provides(provides) {
		c.Status(http.StatusNotFound)
		return
	}

	user, _ := middleware.UserFrom(c)

	state := h.linkStates.Begin(csrf.Record{
		UserID:   &user.ID,
		Provides: provides,
	})

	c.String(http.StatusOK, client.AuthCodeURL(state, ""))
}

// oauthCallback finishes an account-linking round trip. The state must
// belong to the signed-in user; a token minted for one account can never
// attach a connection to another.
func (h *Handler) oauthCallback(c *gin.Context) {
	ctx := c.Request.Context()
	providerName := c.Param("provider")

	user, _ := middleware.UserFrom(c)

	// The provider gate runs before the state is consumed: a callback
	// aimed at an unknown or dropped provider must not burn a pending
	// state that a correctly routed retry could still use.
	client, ok := h.providers.Get().Get(providerName)
	if !ok || client.OpenID() {
		redirectError(c, errUnknownProvider)
		return
	}

	rec, ok := h.linkStates.Consume(c.Query("state"))
	if !ok {
		redirectError(c, errInvalidState)
		return
	}
	if rec.UserID == nil || *rec.UserID != user.ID {
		redirectError(c, errInvalidState)
		return
	}

	token, err := client.Exchange(ctx, c.Query("code"))
	if err != nil {
		redirectError(c, providerError(err))
		return
	}

	conn := users.Connection{
		UserID:       user.ID,
		Provider:     providerName,
		Provides:     rec.Provides,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.AccessTokenExpires = &expiry
	}
	if err := h.users.CreateConnection(ctx, conn); err != nil {
		redirectError(c, databaseError(err))
		return
	}

	redirectHome(c)
}
