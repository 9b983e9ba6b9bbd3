package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions as JSON blobs with a TTL slightly above the
// idle timeout. The TTL is a garbage-collection backstop; the authoritative
// expiry decision is the Manager's last-activity comparison.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore. idleTimeout should match the Manager's
// setting; entries are kept for twice that so an expired session can still
// be observed and destroyed by the next check.
func NewRedisStore(rdb *redis.Client, prefix string, idleTimeout time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: 2 * idleTimeout}
}

func (r *RedisStore) key(id string) string { return r.prefix + ":" + id }

func (r *RedisStore) Get(ctx context.Context, id string) (State, bool, error) {
	var s State
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, id string, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(id), raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
