package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lib_store "github.com/eko/gocache/lib/v4/store"
	redis "github.com/redis/go-redis/v9"
)

// RedisClientInterface is the subset of go-redis commands the store needs.
type RedisClientInterface interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, values any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

const (
	// RedisType represents the storage type as a string value.
	RedisType = "redis"
	// RedisTagPattern is the key pattern used for tag membership sets.
	RedisTagPattern = "counselhub_tag_%s"

	defaultTagTTL = 720 * time.Hour
)

// RedisStore is a typed store over Redis. Values are JSON-encoded; keys must
// be strings.
type RedisStore[T any] struct {
	client  RedisClientInterface
	options *lib_store.Options
}

// NewRedisStore creates a typed store for the given redis client.
func NewRedisStore[T any](client RedisClientInterface, options ...lib_store.Option) *RedisStore[T] {
	return &RedisStore[T]{
		client:  client,
		options: lib_store.ApplyOptions(options...),
	}
}

// Get returns the decoded value stored under key. The result is a T boxed in
// any so the store satisfies lib_store.StoreInterface.
func (s *RedisStore[T]) Get(ctx context.Context, key any) (any, error) {
	var result T

	keyString, ok := key.(string)
	if !ok {
		return result, lib_store.NotFoundWithCause(fmt.Errorf("expected string key, got %T", key))
	}

	raw, err := s.client.Get(ctx, keyString).Result()
	if errors.Is(err, redis.Nil) {
		return result, lib_store.NotFoundWithCause(err)
	}

	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		var zero T
		return zero, fmt.Errorf("decode cached value: %w", err)
	}

	return result, nil
}

// GetWithTTL returns the decoded value and its remaining TTL.
func (s *RedisStore[T]) GetWithTTL(ctx context.Context, key any) (any, time.Duration, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return value, 0, err
	}

	//nolint:forcetypeassert // Get rejects non-string keys.
	ttl, err := s.client.TTL(ctx, key.(string)).Result()
	if err != nil {
		var zero T
		return zero, 0, err
	}

	return value, ttl, nil
}

// Set stores the JSON encoding of value under key.
func (s *RedisStore[T]) Set(ctx context.Context, key any, value any, options ...lib_store.Option) error {
	opts := lib_store.ApplyOptionsWithDefault(s.options, options...)

	keyString, ok := key.(string)
	if !ok {
		return fmt.Errorf("expected string key, got %T", key)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for cache: %w", err)
	}

	err = s.client.Set(ctx, keyString, string(raw), opts.Expiration).Err()
	if err != nil {
		return err
	}

	if tags := opts.Tags; len(tags) > 0 {
		// store.Options has no TagsTTL field until gocache v4.2.1, which
		// needs a newer Go toolchain; tag sets always use the default TTL.
		s.setTags(ctx, keyString, tags, defaultTagTTL)
	}

	return nil
}

func (s *RedisStore[T]) setTags(ctx context.Context, key string, tags []string, ttl time.Duration) {
	for _, tag := range tags {
		tagKey := fmt.Sprintf(RedisTagPattern, tag)
		s.client.SAdd(ctx, tagKey, key)
		s.client.Expire(ctx, tagKey, ttl)
	}
}

// Delete removes the value stored under key.
func (s *RedisStore[T]) Delete(ctx context.Context, key any) error {
	keyString, ok := key.(string)
	if !ok {
		return fmt.Errorf("expected string key, got %T", key)
	}

	return s.client.Del(ctx, keyString).Err()
}

// Invalidate removes all keys tagged with any of the given tags.
func (s *RedisStore[T]) Invalidate(ctx context.Context, options ...lib_store.InvalidateOption) error {
	opts := lib_store.ApplyInvalidateOptions(options...)

	for _, tag := range opts.Tags {
		tagKey := fmt.Sprintf(RedisTagPattern, tag)

		keys, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			continue
		}

		for _, key := range keys {
			_ = s.client.Del(ctx, key).Err()
		}

		_ = s.client.Del(ctx, tagKey).Err()
	}

	return nil
}

// Clear resets all data in the store.
func (s *RedisStore[T]) Clear(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// GetType returns the store type.
func (s *RedisStore[T]) GetType() string {
	return RedisType
}
