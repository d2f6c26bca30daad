package session

import (
	"context"
	"time"

	"github.com/jsimonrichard/sceideal/internal/cache"
)

// Store defines how session data is stored and retrieved, keyed by the
// opaque session id. "Not found" and "expired" are both reported as
// found=false; errors are reserved for backend failures.
type Store interface {
	Create(ctx context.Context, sessionID string, data Data, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (Data, bool, error)

	// Remove atomically takes the session; at most one caller gets
	// found=true for a given live id.
	Remove(ctx context.Context, sessionID string) (Data, bool, error)

	// Touch resets the session's expiry to now+ttl (sliding expiration).
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error

	// Attach atomically applies replace-or-append of one provider
	// record to a live session; no-op for dead ids.
	Attach(ctx context.Context, sessionID string, rec ProviderRecord) error
}

// MemoryStore keeps sessions in the in-process expiring cache. It is the
// canonical store: the cache is the source of truth for "is this request
// authenticated".
type MemoryStore struct {
	cache *cache.Cache[string, Data]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a memory-backed store and starts the cache
// reaper.
func NewMemoryStore() *MemoryStore {
	c := cache.New[string, Data]()
	c.StartReaper(cache.DefaultReapPeriod)
	return &MemoryStore{cache: c}
}

// Close stops the cache reaper.
func (s *MemoryStore) Close() {
	s.cache.Stop()
}

func (s *MemoryStore) Create(_ context.Context, sessionID string, data Data, ttl time.Duration) error {
	s.cache.Insert(sessionID, data, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Data, bool, error) {
	data, ok := s.cache.Get(sessionID)
	if !ok {
		return Data{}, false, nil
	}
	return data.clone(), true, nil
}

func (s *MemoryStore) Remove(_ context.Context, sessionID string) (Data, bool, error) {
	data, ok := s.cache.Remove(sessionID)
	return data, ok, nil
}

func (s *MemoryStore) Touch(_ context.Context, sessionID string, ttl time.Duration) error {
	s.cache.SetExpiration(sessionID, ttl)
	return nil
}

func (s *MemoryStore) Attach(_ context.Context, sessionID string, rec ProviderRecord) error {
	s.cache.Update(sessionID, func(d *Data) {
		d.AttachProvider(rec)
	})
	return nil
}
