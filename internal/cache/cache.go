// Package cache implements a concurrency-safe in-memory key-value store
// with per-entry time-to-live.
//
// Expiry is enforced lazily on every read and write; the optional reaper
// goroutine only reclaims memory and is not required for correctness. The
// cache never distinguishes "absent" from "expired" to its callers.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache maps keys to values with a per-entry absolute expiry.
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]

	clock func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates an empty cache. Call StartReaper to bound memory growth
// from entries that expire without ever being read again.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
}

// SetClock replaces the time source. Intended for tests that need to
// move time without sleeping; not safe to call concurrently with other
// operations.
func (c *Cache[K, V]) SetClock(now func() time.Time) {
	c.clock = now
}

// Insert stores value under key with expiry now+ttl, overwriting and
// discarding any previous entry for that key.
func (c *Cache[K, V]) Insert(key K, value V, ttl time.Duration) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(ttl),
	}
}

// Get returns a snapshot of the value for key if the entry exists and has
// not expired. It never extends the entry's TTL; concurrent Gets do not
// block each other.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	now := c.clock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Remove atomically takes and returns the value for key. At most one of
// any number of concurrent removers receives the value; the rest, and any
// caller racing an expired or absent entry, get false.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	if e.expired(now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Update applies mutate to the value stored under key, in place, while
// holding the write lock, so no reader observes a half-mutated value.
// It reports whether a live entry was found; expiry is unchanged.
func (c *Cache[K, V]) Update(key K, mutate func(*V)) bool {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		return false
	}
	mutate(&e.value)
	c.entries[key] = e
	return true
}

// SetExpiration resets the expiry of a live entry to now+ttl. It reports
// whether a live entry was found; absent or expired entries are untouched.
func (c *Cache[K, V]) SetExpiration(key K, ttl time.Duration) bool {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		return false
	}
	e.expiresAt = now.Add(ttl)
	c.entries[key] = e
	return true
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reaper sampling defaults. The reaper checks a random sample each tick:
// at least minSample entries and at least sampleRatio of the map.
const (
	minSample   = 4
	sampleRatio = 0.25

	DefaultReapPeriod = 3 * time.Second
)

// StartReaper launches a goroutine that evicts expired entries on a fixed
// period. It is purely a memory-reclamation optimization; reads already
// enforce expiry. Stop terminates it.
func (c *Cache[K, V]) StartReaper(period time.Duration) {
	if period <= 0 {
		period = DefaultReapPeriod
	}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.reap()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the reaper goroutine, if one was started. Safe to call
// more than once.
func (c *Cache[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// reap inspects a random sample of entries and deletes the expired ones.
// Map iteration order is already randomized, so walking the first n keys
// of an iteration is a uniform-enough sample.
func (c *Cache[K, V]) reap() {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := minSample
	if r := int(float64(len(c.entries)) * sampleRatio); r > n {
		n = r
	}

	for key, e := range c.entries {
		if n <= 0 {
			break
		}
		n--
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
