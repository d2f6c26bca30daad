package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jsimonrichard/sceideal/internal/auth"
	"github.com/jsimonrichard/sceideal/internal/auth/provider"
	"github.com/jsimonrichard/sceideal/internal/csrf"
	"github.com/jsimonrichard/sceideal/internal/middleware"
	"github.com/jsimonrichard/sceideal/internal/session"
	"github.com/jsimonrichard/sceideal/internal/users"
)

// openIDGenerateURL starts an OpenID Connect login. It stores a fresh
// state token with its nonce and returns the provider authorization URL
// as a plain string for the frontend to follow.
func (h *Handler) openIDGenerateURL(c *gin.Context) {
	client, ok := h.providers.Get().Get(c.Param("provider"))
	if !ok || !client.OpenID() {
		c.Status(http.StatusNotFound)
		return
	}

	nonce := csrf.NewNonce()
	state := h.loginStates.Begin(csrf.Record{Nonce: nonce})

	c.String(http.StatusOK, client.AuthCodeURL(state, nonce))
}

// openIDCallback finishes an OpenID Connect round trip. Depending on who
// arrives it attaches the provider to the current account, signs in an
// account already connected to this (provider, subject), or signs up a
// new user when the deployment allows it.
func (h *Handler) openIDCallback(c *gin.Context) {
	ctx := c.Request.Context()
	providerName := c.Param("provider")

	client, ok := h.providers.Get().Get(providerName)
	if !ok || !client.OpenID() {
		redirectError(c, errUnknownProvider)
		return
	}

	// The state token is single use; consuming it here means a replayed
	// callback URL fails before any network or database work.
	rec, ok := h.loginStates.Consume(c.Query("state"))
	if !ok {
		redirectError(c, errInvalidState)
		return
	}

	token, err := client.Exchange(ctx, c.Query("code"))
	if err != nil {
		redirectError(c, providerError(err))
		return
	}

	claims, err := client.VerifyIDToken(ctx, token, rec.Nonce)
	if err != nil {
		redirectError(c, verificationError(err))
		return
	}

	// Already signed in: link this provider to the current account.
	if user, ok := middleware.UserFrom(c); ok {
		h.attachToAccount(c, user, client, claims, token)
		return
	}

	conn, err := h.users.FindConnection(ctx, providerName, claims.Subject)
	if err != nil {
		redirectError(c, databaseError(err))
		return
	}
	if conn != nil {
		h.signIn(c, conn.UserID, client, claims, token)
		return
	}

	if !h.cfg.Get().AllowSignups {
		redirectError(c, errSignUpDisallowed)
		return
	}
	h.signUp(c, client, claims, token)
}

func (h *Handler) attachToAccount(c *gin.Context, user *users.User, client *provider.Client, claims *auth.Claims, token *oauth2.Token) {
	if err := h.sessions.AttachProvider(c.Request, providerRecord(client, claims, token)); err != nil {
		redirectError(c, sessionError(err))
		return
	}

	err := h.users.CreateConnection(c.Request.Context(), connection(user.ID, client, claims, token))
	if err != nil {
		redirectError(c, databaseError(err))
		return
	}

	redirectHome(c)
}

func (h *Handler) signIn(c *gin.Context, userID uuid.UUID, client *provider.Client, claims *auth.Claims, token *oauth2.Token) {
	data := session.NewData(userID, providerRecord(client, claims, token))
	if _, err := h.sessions.Create(c.Writer, c.Request, data); err != nil {
		redirectError(c, sessionError(err))
		return
	}

	redirectHome(c)
}

func (h *Handler) signUp(c *gin.Context, client *provider.Client, claims *auth.Claims, token *oauth2.Token) {
	ctx := c.Request.Context()

	nu, ok := newUserFromClaims(claims)
	if !ok {
		redirectError(c, errMissingInformation)
		return
	}

	userID, err := h.users.CreateUser(ctx, nu)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			redirectError(c, errUserExists)
		} else {
			redirectError(c, databaseError(err))
		}
		return
	}

	if err := h.users.CreateConnection(ctx, connection(userID, client, claims, token)); err != nil {
		redirectError(c, databaseError(err))
		return
	}

	h.signIn(c, userID, client, claims, token)
}

// newUserFromClaims maps verified ID-token claims onto an account row.
// Email and both name parts are mandatory.
func newUserFromClaims(claims *auth.Claims) (users.NewUser, bool) {
	if claims.Email == "" || claims.GivenName == "" || claims.FamilyName == "" {
		return users.NewUser{}, false
	}

	nu := users.NewUser{
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		FName:         claims.GivenName,
		LName:         claims.FamilyName,
	}
	if claims.PhoneNumber != "" {
		phone := claims.PhoneNumber
		nu.PhoneNumber = &phone
	}
	return nu, true
}

func providerRecord(client *provider.Client, claims *auth.Claims, token *oauth2.Token) session.ProviderRecord {
	return session.ProviderRecord{
		Provider:     client.Name(),
		Subject:      claims.Subject,
		Token:        token,
		RPLogoutOpen: client.HasEndSessionEndpoint(),
	}
}

func connection(userID uuid.UUID, client *provider.Client, claims *auth.Claims, token *oauth2.Token) users.Connection {
	conn := users.Connection{
		UserID:          userID,
		Provider:        client.Name(),
		Provides:        provider.ProvisionAuth,
		Subject:         claims.Subject,
		AssociatedEmail: claims.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.AccessTokenExpires = &expiry
	}
	return conn
}
