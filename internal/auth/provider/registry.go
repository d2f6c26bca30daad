package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jsimonrichard/sceideal/internal/config"
	"github.com/jsimonrichard/sceideal/internal/logger"
)

// Registry holds all usable provider clients, looked up by name.
type Registry struct {
	clients map[string]*Client
}

// Build constructs clients for every configured provider. OIDC metadata
// discovery runs concurrently. A provider that fails to build (bad
// issuer, discovery error, bad redirect URL) is logged and dropped; the
// rest of the registry stays usable, so Build never fails.
func Build(ctx context.Context, cfg *config.Config) *Registry {
	var (
		mu      sync.Mutex
		clients = make(map[string]*Client, len(cfg.Providers))
		wg      sync.WaitGroup
	)

	for name, pc := range cfg.Providers {
		wg.Add(1)
		go func(name string, pc config.Provider) {
			defer wg.Done()

			client, err := build(ctx, cfg.BaseURL, name, pc)
			if err != nil {
				logger.Warnw("dropping oauth provider", "provider", name, "error", err)
				return
			}

			mu.Lock()
			clients[name] = client
			mu.Unlock()
		}(name, pc)
	}
	wg.Wait()

	return &Registry{clients: clients}
}

func build(ctx context.Context, baseURL, name string, pc config.Provider) (*Client, error) {
	switch pc.Kind() {
	case config.ProviderOpenID:
		return buildOpenID(ctx, baseURL, name, pc)
	default:
		return buildOAuth(baseURL, name, pc), nil
	}
}

func buildOpenID(ctx context.Context, baseURL, name string, pc config.Provider) (*Client, error) {
	oidcProvider, err := oidc.NewProvider(ctx, pc.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover openid provider: %w", err)
	}

	// end_session_endpoint is optional provider metadata; absence just
	// disables RP-initiated logout for this provider.
	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := oidcProvider.Claims(&extra); err != nil {
		logger.Warnw("could not read extra provider metadata", "provider", name, "error", err)
	}

	return &Client{
		name: name,
		kind: config.ProviderOpenID,
		oauth: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/openid/%s/callback", baseURL, name),
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		provides: pc.Provides,
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: pc.ClientID,
		}),
		endSessionEndpoint: extra.EndSessionEndpoint,
	}, nil
}

func buildOAuth(baseURL, name string, pc config.Provider) *Client {
	return &Client{
		name: name,
		kind: config.ProviderOAuth,
		oauth: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/oauth/%s/callback", baseURL, name),
			Endpoint: oauth2.Endpoint{
				AuthURL:  pc.AuthURL,
				TokenURL: pc.TokenURL,
			},
			Scopes: pc.Provides,
		},
		provides: pc.Provides,
	}
}

// Get returns the client for name; ok=false for unknown or dropped
// providers, which callers map to a "provider not found" client error.
func (r *Registry) Get(name string) (*Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Names lists the usable providers in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Live is an atomically swappable Registry, rebuilt on config reload.
type Live struct {
	p atomic.Pointer[Registry]
}

// NewLive wraps an initial registry.
func NewLive(r *Registry) *Live {
	l := &Live{}
	l.p.Store(r)
	return l
}

// Get returns the current registry.
func (l *Live) Get() *Registry {
	return l.p.Load()
}

// Set replaces the registry.
func (l *Live) Set(r *Registry) {
	l.p.Store(r)
}
