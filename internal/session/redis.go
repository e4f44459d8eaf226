package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "sess"

// RedisStore keeps sessions in Redis as JSON values under "{prefix}:{token}".
// Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(token string) string { return s.prefix + ":" + token }

func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	var out Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return Session{}, fmt.Errorf("session decode: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, token string, sess Session, ttl time.Duration) error {
	sess.ExpiresAt = time.Now().Add(ttl)
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

// Touch renews the key TTL.  The stored ExpiresAt is left as written at Set
// time; Redis is authoritative for expiry.
func (s *RedisStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, s.key(token), ttl).Result()
	if err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}
