// Package provider builds and holds the per-provider OAuth2/OIDC
// clients. The registry is constructed once at startup (and again on
// config reload) and is read-only afterward.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jsimonrichard/sceideal/internal/auth"
	"github.com/jsimonrichard/sceideal/internal/config"
)

// ProvisionAuth is the provision every OpenID provider offers; plain
// OAuth2 providers offer only what their config lists.
const ProvisionAuth = "auth"

// Client is one configured provider, resolved to either a discovered
// OIDC client or a plain OAuth2 client at construction time.
type Client struct {
	name string
	kind config.ProviderKind

	oauth    *oauth2.Config
	provides []string

	// OIDC only.
	verifier           *oidc.IDTokenVerifier
	endSessionEndpoint string
}

// Name returns the provider key used in routes and connection rows.
func (c *Client) Name() string { return c.name }

// OpenID reports whether this client verifies ID tokens.
func (c *Client) OpenID() bool { return c.kind == config.ProviderOpenID }

// Provides reports whether the provider offers the named provision.
func (c *Client) Provides(provision string) bool {
	if provision == ProvisionAuth {
		return c.OpenID()
	}
	for _, p := range c.provides {
		if p == provision {
			return true
		}
	}
	return false
}

// AuthCodeURL builds the provider authorization URL. nonce is included
// for OIDC clients and ignored otherwise. This never touches the
// network.
func (c *Client) AuthCodeURL(state, nonce string) string {
	if c.OpenID() && nonce != "" {
		return c.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
	}
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.oauth.Exchange(ctx, code)
}

// VerifyIDToken verifies the ID token carried in token against the
// client's issuer keys and the expected nonce, and extracts claims.
// Only valid for OIDC clients.
func (c *Client) VerifyIDToken(ctx context.Context, token *oauth2.Token, nonce string) (*auth.Claims, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("provider did not return an id_token")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification failed: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, errors.New("id_token nonce mismatch")
	}

	var claims auth.Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("id_token missing subject")
	}
	return &claims, nil
}

// LogoutURL builds the RP-initiated logout URL for this provider, if it
// advertises an end-session endpoint.
func (c *Client) LogoutURL(postLogoutRedirect string) (string, bool) {
	if c.endSessionEndpoint == "" {
		return "", false
	}

	u, err := url.Parse(c.endSessionEndpoint)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set("post_logout_redirect_uri", postLogoutRedirect)
	u.RawQuery = q.Encode()
	return u.String(), true
}

// HasEndSessionEndpoint reports whether the provider supports
// RP-initiated logout.
func (c *Client) HasEndSessionEndpoint() bool {
	return c.endSessionEndpoint != ""
}
