package session

import (
	"net/http"
	"time"
)

const CookieName = "sid"

// CookieOptions defines how session cookies are issued. Production
// tightens SameSite and requires HTTPS; development keeps Lax so the
// OAuth redirect dance works over plain http://localhost.
type CookieOptions struct {
	Production bool
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// SetCookie issues the session cookie to the client. The cookie value is
// only a copy of the id; the store remains authoritative.
func SetCookie(w http.ResponseWriter, sessionID string, ttl time.Duration, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Production,
		SameSite: opts.sameSite(),
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Production,
		SameSite: opts.sameSite(),
	})
}

// IDFromRequest extracts the session id from the request cookie jar.
// An absent cookie is an anonymous request, not an error.
func IDFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
