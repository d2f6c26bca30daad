package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
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

func newTestCache[K comparable, V any](clk *fakeClock) *Cache[K, V] {
	c := New[K, V]()
	c.SetClock(clk.Now)
	return c
}

func TestGetBeforeAndAfterExpiry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 42, time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	clk.Advance(59 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok, "entry must be visible right up to its TTL")

	clk.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must be gone at insert_time+ttl")
}

func TestGetDoesNotExtendTTL(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 1, time.Minute)
	for i := 0; i < 10; i++ {
		clk.Advance(10 * time.Second)
		c.Get("k")
	}

	_, ok := c.Get("k")
	assert.False(t, ok, "reads must not act as keep-alive")
}

func TestInsertOverwrites(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, string](clk)

	c.Insert("k", "old", time.Second)
	c.Insert("k", "new", time.Minute)

	clk.Advance(30 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveReturnsValueOnce(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 7, time.Minute)

	v, ok := c.Remove("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = c.Remove("k")
	assert.False(t, ok)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestRemoveExpiredEntry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 7, time.Second)
	clk.Advance(2 * time.Second)

	_, ok := c.Remove("k")
	assert.False(t, ok, "expired entries are indistinguishable from absent ones")
	assert.Equal(t, 0, c.Len(), "remove still evicts the dead entry")
}

func TestConcurrentRemoveExactlyOnce(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	const removers = 32
	c.Insert("k", 1, time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < removers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := c.Remove("k"); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one remover may win")
}

func TestUpdateMutatesInPlace(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, []string](clk)

	c.Insert("k", []string{"a"}, time.Minute)

	ok := c.Update("k", func(v *[]string) {
		*v = append(*v, "b")
	})
	require.True(t, ok)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestUpdateMissingOrExpiredIsNoop(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	called := false
	assert.False(t, c.Update("missing", func(*int) { called = true }))
	assert.False(t, called)

	c.Insert("k", 1, time.Second)
	clk.Advance(2 * time.Second)
	assert.False(t, c.Update("k", func(*int) { called = true }))
	assert.False(t, called)
}

func TestUpdateDoesNotExtendTTL(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 1, time.Minute)
	clk.Advance(59 * time.Second)
	require.True(t, c.Update("k", func(v *int) { *v++ }))

	clk.Advance(time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestSetExpirationExtendsLiveEntry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	c.Insert("k", 1, time.Minute)
	clk.Advance(50 * time.Second)
	require.True(t, c.SetExpiration("k", time.Minute))

	clk.Advance(50 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "expiry should be measured from the SetExpiration call")

	clk.Advance(11 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSetExpirationOnDeadEntry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[string, int](clk)

	assert.False(t, c.SetExpiration("missing", time.Minute))

	c.Insert("k", 1, time.Second)
	clk.Advance(2 * time.Second)
	assert.False(t, c.SetExpiration("k", time.Minute), "a dead id must never re-enter live")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestReapEvictsExpiredSample(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[int, int](clk)

	for i := 0; i < 100; i++ {
		c.Insert(i, i, time.Second)
	}
	clk.Advance(2 * time.Second)

	// Each pass samples at least 25% of the map; a few passes drain it.
	for i := 0; i < 50 && c.Len() > 0; i++ {
		c.reap()
	}
	assert.Equal(t, 0, c.Len())
}

func TestReaperGoroutineStops(t *testing.T) {
	c := New[string, int]()
	c.StartReaper(time.Millisecond)

	c.Insert("k", 1, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	c.Stop()
	c.Stop() // idempotent
}

func TestConcurrentMixedOperations(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache[int, int](clk)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				k := (base*500 + j) % 64
				switch j % 5 {
				case 0:
					c.Insert(k, j, time.Minute)
				case 1:
					c.Get(k)
				case 2:
					c.Update(k, func(v *int) { *v++ })
				case 3:
					c.SetExpiration(k, time.Minute)
				default:
					c.Remove(k)
				}
			}
		}(i)
	}
	wg.Wait()
}
