package session

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsimonrichard/sceideal/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestManager(ttl time.Duration) (*Manager, *fakeClock) {
	clk := newFakeClock()
	c := cache.New[string, Data]()
	c.SetClock(clk.Now)
	store := &MemoryStore{cache: c}
	return NewManager(store, ttl, false), clk
}

// requestWith returns a request carrying the cookies of a prior response.
func requestWith(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestCreateIssuesCookieAndSession(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	sid, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewData(userID))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(sid), 30)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, sid, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
	assert.False(t, cookie.Secure, "development cookies must work over http")
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	data, ok, err := m.Resolve(requestWith(t, rec))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, data.UserID)
}

func TestProductionCookieAttributes(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, true)

	rec := httptest.NewRecorder()
	_, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewData(uuid.New()))
	require.NoError(t, err)

	cookie := rec.Result().Cookies()[0]
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestResolveWithoutCookieIsAnonymous(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	_, ok, err := m.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlidingExpiry(t *testing.T) {
	const ttl = time.Hour
	m, clk := newTestManager(ttl)

	rec := httptest.NewRecorder()
	_, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewData(uuid.New()))
	require.NoError(t, err)
	req := requestWith(t, rec)

	// Touching at intervals below the TTL keeps the session alive past
	// several full TTLs.
	for i := 0; i < 5; i++ {
		clk.Advance(50 * time.Minute)
		require.NoError(t, m.Touch(req))
		_, ok, err := m.Resolve(req)
		require.NoError(t, err)
		require.True(t, ok, "touched session must stay live (iteration %d)", i)
	}

	// Ceasing to touch lets it expire after one TTL.
	clk.Advance(ttl + time.Minute)
	_, ok, err := m.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestroyReturnsDataAndClearsCookie(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	_, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewData(userID, ProviderRecord{
		Provider:     "keycloak",
		RPLogoutOpen: true,
	}))
	require.NoError(t, err)
	req := requestWith(t, rec)

	out := httptest.NewRecorder()
	data, found, err := m.Destroy(out, req)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, userID, data.UserID)

	provider, ok := data.RPLogoutProvider()
	require.True(t, ok)
	assert.Equal(t, "keycloak", provider)

	cookies := out.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge, "cookie must be stripped")

	// A destroyed id is permanently dead.
	_, ok, err = m.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestroyAnonymousStillClearsCookie(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	out := httptest.NewRecorder()
	_, found, err := m.Destroy(out, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.NoError(t, err)
	assert.False(t, found)
	require.Len(t, out.Result().Cookies(), 1)
}

func TestAttachProviderReplaceOrAppend(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	rec := httptest.NewRecorder()
	_, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewData(uuid.New()))
	require.NoError(t, err)
	req := requestWith(t, rec)

	require.NoError(t, m.AttachProvider(req, ProviderRecord{Provider: "keycloak", Subject: "a"}))
	require.NoError(t, m.AttachProvider(req, ProviderRecord{Provider: "google", Subject: "b"}))
	// Same provider again: replaced, not duplicated.
	require.NoError(t, m.AttachProvider(req, ProviderRecord{Provider: "keycloak", Subject: "c"}))

	data, ok, err := m.Resolve(req)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, data.Providers, 2)

	kc, ok := data.Provider("keycloak")
	require.True(t, ok)
	assert.Equal(t, "c", kc.Subject)
}

func TestGenerateIDAlphabetAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(id), 30)
		for _, r := range id {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			require.True(t, isAlnum, "id %q contains %q", id, r)
		}
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
