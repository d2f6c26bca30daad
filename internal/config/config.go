// Package config loads the service configuration from a YAML file, with
// defaults, env overrides for secrets, and struct validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session backend selection.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// ProviderKind is decided once at config-parse time based on which URL
// fields a provider entry carries; handlers never branch on shape again.
type ProviderKind int

const (
	// ProviderOpenID entries name an issuer URL; endpoints are discovered.
	ProviderOpenID ProviderKind = iota
	// ProviderOAuth entries name explicit authorize and token URLs.
	ProviderOAuth
)

// Provider is one entry of the providers map. Exactly one of
// {IssuerURL} or {AuthURL, TokenURL} must be set.
type Provider struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret"`

	IssuerURL string `yaml:"issuer_url" validate:"omitempty,url"`
	AuthURL   string `yaml:"auth_url" validate:"omitempty,url"`
	TokenURL  string `yaml:"token_url" validate:"omitempty,url"`

	// Provides lists the non-auth capabilities this provider can be
	// connected for (e.g. "calendar"). OpenID providers always provide
	// auth.
	Provides []string `yaml:"provides"`

	kind ProviderKind
}

// Kind reports the shape resolved at load time.
func (p *Provider) Kind() ProviderKind { return p.kind }

// resolveKind settles the OAuth-vs-OpenID ambiguity once.
func (p *Provider) resolveKind(name string) error {
	hasIssuer := p.IssuerURL != ""
	hasExplicit := p.AuthURL != "" && p.TokenURL != ""

	switch {
	case hasIssuer && !hasExplicit && p.AuthURL == "" && p.TokenURL == "":
		p.kind = ProviderOpenID
		return nil
	case hasExplicit && !hasIssuer:
		p.kind = ProviderOAuth
		return nil
	default:
		return fmt.Errorf("provider %q must set either issuer_url or both auth_url and token_url", name)
	}
}

// Session holds session-store settings.
type Session struct {
	Backend string   `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
	TTL     Duration `yaml:"ttl" default:"5h" validate:"gt=0"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
}

// CSRF holds the state-token TTLs for the two authorization flows.
type CSRF struct {
	// OAuthTTL bounds the account-linking (plain OAuth2) round trip.
	OAuthTTL Duration `yaml:"oauth_ttl" default:"15m" validate:"gt=0"`
	// OpenIDTTL bounds the login (OIDC) round trip.
	OpenIDTTL Duration `yaml:"openid_ttl" default:"1h" validate:"gt=0"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development production"`
	BindAddress string `yaml:"bind_address" default:"0.0.0.0:8080"`

	// BaseURL is the externally visible root of the app; provider
	// redirect URLs are derived from it.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	DatabaseURL string `yaml:"database_url" validate:"required"`

	AllowSignups                 bool `yaml:"allow_signups"`
	RedirectToFirstOAuthProvider bool `yaml:"redirect_to_first_oauth_provider"`
	LiveReloading                bool `yaml:"live_reloading"`

	Session   Session             `yaml:"session"`
	CSRF      CSRF                `yaml:"csrf"`
	Providers map[string]Provider `yaml:"providers"`
}

// Production reports whether the service runs with production cookie
// attributes (Secure, SameSite=Strict).
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// Path returns the config file path: CONFIG_PATH or ./config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads, defaults, and validates the configuration at path.
// A .env file next to the process, if present, is folded into the
// environment first so DATABASE_URL etc. can be overridden locally.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Env overrides for the settings that are deployment secrets.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Session.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Session.RedisPassword = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("config: invalid: %w", verrs)
		}
		return fmt.Errorf("config: validate: %w", err)
	}

	for name, p := range c.Providers {
		if err := p.resolveKind(name); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		c.Providers[name] = p
	}

	if c.Session.Backend == SessionBackendRedis && c.Session.RedisAddr == "" {
		return errors.New("config: session backend is redis but redis_addr is empty")
	}
	return nil
}
