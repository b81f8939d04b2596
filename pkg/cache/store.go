package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

// Store keeps derived payloads in Redis as JSON under a namespaced key
// space. A nil client degrades every read to a miss and every write to a
// no-op, so the API keeps serving when Redis is down.
type Store struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewStore wraps client. namespace prefixes every key; empty disables
// prefixing.
func NewStore(client *redis.Client, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, namespace: namespace, logger: logger}
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

// Get unmarshals the entry under key into dest. An absent key and a nil
// client both surface as the cache-miss sentinel.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// a corrupt entry is dropped and reported as a miss so the caller
		// recomputes instead of failing
		s.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		s.client.Del(ctx, s.key(key))
		return appErrors.ErrCacheMiss
	}

	return nil
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// DeleteByPattern removes every entry matching pattern within the
// namespace. The matched keys are collected first and deleted in one
// round trip.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) error {
	if s.client == nil {
		return nil
	}

	iter := s.client.Scan(ctx, 0, s.key(pattern), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %d keys for %s: %w", len(keys), pattern, err)
	}
	return nil
}

// Close releases the client connection if present.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
