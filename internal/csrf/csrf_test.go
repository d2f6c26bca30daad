package csrf

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginConsumeRoundTrip(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	userID := uuid.New()
	token := c.Begin(Record{UserID: &userID, Provides: "calendar", Nonce: "n1"})
	require.NotEmpty(t, token)

	rec, ok := c.Consume(token)
	require.True(t, ok)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, userID, *rec.UserID)
	assert.Equal(t, "calendar", rec.Provides)
	assert.Equal(t, "n1", rec.Nonce)
}

func TestConsumeIsSingleUse(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	token := c.Begin(Record{Nonce: "n1"})

	_, ok := c.Consume(token)
	require.True(t, ok)

	_, ok = c.Consume(token)
	assert.False(t, ok, "a replayed callback must fail")
}

func TestConsumeUnknownToken(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	_, ok := c.Consume("never-issued")
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		token := c.Begin(Record{})
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestConcurrentConsumeExactlyOnce(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	token := c.Begin(Record{Nonce: "n1"})

	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := c.Consume(token); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
