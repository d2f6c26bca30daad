// Package middleware provides the session-extraction middleware that
// runs before authenticated handlers.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/logger"
	"github.com/jsimonrichard/sceideal/internal/session"
	"github.com/jsimonrichard/sceideal/internal/users"
)

// userKey is the gin context key the resolved user is stored under.
const userKey = "authenticatedUser"

// UserFrom extracts the authenticated user placed by LoadUser or
// RequireUser.
func UserFrom(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*users.User)
	return u, ok
}

type Auth struct {
	sessions *session.Manager
	users    users.Store
}

func NewAuth(sessions *session.Manager, store users.Store) *Auth {
	return &Auth{sessions: sessions, users: store}
}

// load resolves the session cookie, renews the session TTL, and injects
// the user into the request context. It reports false when the request
// was aborted by an infrastructure failure; an anonymous request is
// fine=true with no user set.
func (a *Auth) load(c *gin.Context) bool {
	data, ok, err := a.sessions.Resolve(c.Request)
	if err != nil {
		logger.Errorw("session resolution failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
		return false
	}
	if !ok {
		return true
	}

	user, err := a.users.GetUser(c.Request.Context(), data.UserID)
	if err != nil {
		logger.Errorw("user lookup failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
		return false
	}
	if user == nil {
		// Session refers to a deleted user; treat as anonymous.
		return true
	}

	// Sliding expiration: every resolved request renews the TTL.
	if err := a.sessions.Touch(c.Request); err != nil {
		logger.Warnw("session touch failed", "error", err)
	}

	c.Set(userKey, user)
	return true
}

// LoadUser injects the user when a live session is present and lets
// anonymous requests pass through.
func (a *Auth) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.load(c)
	}
}

// RequireUser is LoadUser plus a 403 short circuit for anonymous
// requests.
func (a *Auth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.load(c) {
			return
		}
		if _, ok := UserFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "no user found",
			})
		}
	}
}
