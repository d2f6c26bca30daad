// Package csrf caches pending authorization round-trips keyed by the
// state token echoed back by the provider. Each entry is single use:
// consuming it removes it, so a callback URL can never be replayed.
package csrf

import (
	"time"

	"github.com/google/uuid"

	"github.com/jsimonrichard/sceideal/internal/cache"
	"github.com/jsimonrichard/sceideal/internal/utils"
)

// tokenBytes of entropy go into each state token and nonce.
const tokenBytes = 32

// Record is the pending-operation context stored under a state token.
type Record struct {
	// UserID is set for account-linking flows and must match the
	// session user observed at callback time.
	UserID *uuid.UUID

	// Provides is the provision requested by a linking flow
	// (e.g. "calendar"); empty for anonymous login flows.
	Provides string

	// Nonce is the OIDC nonce to verify inside the returned ID token;
	// empty for plain OAuth2 flows.
	Nonce string
}

// Cache holds pending authorization contexts with a short TTL. Keys are
// compared by their secret bytes (plain string equality).
type Cache struct {
	cache *cache.Cache[string, Record]
	ttl   time.Duration
}

// New creates a Cache with the given entry TTL and starts the reaper.
func New(ttl time.Duration) *Cache {
	c := cache.New[string, Record]()
	c.StartReaper(cache.DefaultReapPeriod)
	return &Cache{cache: c, ttl: ttl}
}

// Close stops the reaper.
func (c *Cache) Close() {
	c.cache.Stop()
}

// NewNonce generates a fresh random OIDC nonce.
func NewNonce() string {
	return utils.RandomString(tokenBytes)
}

// Begin generates a fresh state token, stores record under it, and
// returns the token for inclusion in the authorization URL.
func (c *Cache) Begin(record Record) string {
	token := utils.RandomString(tokenBytes)
	c.cache.Insert(token, record, c.ttl)
	return token
}

// Consume atomically removes and returns the record for token. A second
// Consume of the same token, or any unknown or expired token, reports
// ok=false; the caller treats that as an invalid-state authentication
// failure.
func (c *Cache) Consume(token string) (Record, bool) {
	return c.cache.Remove(token)
}
