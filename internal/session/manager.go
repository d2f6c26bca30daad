package session

import (
	"net/http"
	"time"
)

// Manager ties a Store to the cookie jar: it owns id generation, cookie
// issuance and renewal, and exposes the lifecycle operations handlers
// and middleware use. The session id state machine per id is
// absent → live → live (touched) → removed/expired, never back.
type Manager struct {
	store Store
	ttl   time.Duration
	opts  CookieOptions
}

// NewManager creates a Manager with the given backing store and TTL.
func NewManager(store Store, ttl time.Duration, production bool) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		opts:  CookieOptions{Production: production},
	}
}

// TTL returns the configured session time-to-live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session for data: a fresh random id is inserted
// into the store and the cookie is attached to the response.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, data Data) (string, error) {
	sid, err := GenerateID()
	if err != nil {
		return "", err
	}
	if err := m.store.Create(r.Context(), sid, data, m.ttl); err != nil {
		return "", err
	}
	SetCookie(w, sid, m.ttl, m.opts)
	return sid, nil
}

// Resolve returns the session data for the request's cookie, if the
// cookie is present and the session is live. An anonymous request is
// (Data{}, false, nil).
func (m *Manager) Resolve(r *http.Request) (Data, bool, error) {
	sid, ok := IDFromRequest(r)
	if !ok {
		return Data{}, false, nil
	}
	return m.store.Get(r.Context(), sid)
}

// Touch resets the session's expiry to the full TTL (sliding
// expiration). Called on every request that successfully resolves a
// user, so an active session never expires mid-use.
func (m *Manager) Touch(r *http.Request) error {
	sid, ok := IDFromRequest(r)
	if !ok {
		return nil
	}
	return m.store.Touch(r.Context(), sid, m.ttl)
}

// Destroy removes the session and strips the cookie. The removed data is
// returned so logout can find relying-party logout endpoints.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) (Data, bool, error) {
	var (
		data  Data
		found bool
		err   error
	)
	if sid, ok := IDFromRequest(r); ok {
		data, found, err = m.store.Remove(r.Context(), sid)
	}
	ClearCookie(w, m.opts)
	return data, found, err
}

// AttachProvider atomically adds or replaces a provider record on the
// request's live session.
func (m *Manager) AttachProvider(r *http.Request, rec ProviderRecord) error {
	sid, ok := IDFromRequest(r)
	if !ok {
		return nil
	}
	return m.store.Attach(r.Context(), sid, rec)
}
