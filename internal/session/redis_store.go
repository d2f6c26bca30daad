package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store for deployments where sessions must
// survive a process restart or be shared between replicas. Per-key
// atomicity for Remove and Attach is provided by Redis transactions
// (GETDEL, WATCH).
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Create(ctx context.Context, sessionID string, data Data, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session: missing session id")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be positive")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(sessionID), raw, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (Data, bool, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, err
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return Data{}, false, fmt.Errorf("session: unmarshal: %w", err)
	}
	return data, true, nil
}

func (r *RedisStore) Remove(ctx context.Context, sessionID string) (Data, bool, error) {
	val, err := r.client.GetDel(ctx, r.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, err
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return Data{}, false, fmt.Errorf("session: unmarshal: %w", err)
	}
	return data, true, nil
}

func (r *RedisStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	// Expire on a missing key is a no-op, matching the memory store.
	return r.client.Expire(ctx, r.key(sessionID), ttl).Err()
}

func (r *RedisStore) Attach(ctx context.Context, sessionID string, rec ProviderRecord) error {
	key := r.key(sessionID)

	// Optimistic read-modify-write; retried when another writer touches
	// the key between WATCH and EXEC.
	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return nil // dead session, no-op
			}
			if err != nil {
				return err
			}

			var data Data
			if err := json.Unmarshal([]byte(val), &data); err != nil {
				return fmt.Errorf("session: unmarshal: %w", err)
			}
			data.AttachProvider(rec)

			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("session: marshal: %w", err)
			}

			ttl, err := tx.TTL(ctx, key).Result()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, ttl)
				return nil
			})
			return err
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session: attach retries exhausted for %s", key)
}
