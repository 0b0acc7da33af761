// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/samber/oops"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store over a shared, long-lived Redis client.
// The client is injected once at construction; individual operations do not
// open or close connections.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore with its own client from opts.
func NewRedisStore(opts Options) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// NewRedisStoreWithClient wraps an existing client. The caller retains
// ownership and is responsible for closing it.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	//nolint:wrapcheck // plain passthrough on shutdown
	return s.client.Close()
}

// Ping verifies the backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return oops.Code("STORE_UNAVAILABLE").With("op", "ping").Wrap(err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, storeErr("exists", key, err)
	}
	return n > 0, nil
}

// Get returns the scalar value at key, with ok=false for an absent key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("get", key, err)
	}
	return val, true, nil
}

// Set writes a scalar value at key.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return storeErr("set", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return storeErr("delete", keys[0], err)
	}
	return nil
}

// AddToSet adds members to the set at key.
func (s *RedisStore) AddToSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.SAdd(ctx, key, args...).Err(); err != nil {
		return storeErr("sadd", key, err)
	}
	return nil
}

// RemoveFromSet removes members from the set at key.
func (s *RedisStore) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.SRem(ctx, key, args...).Err(); err != nil {
		return storeErr("srem", key, err)
	}
	return nil
}

// MembersOf returns the members of the set at key.
func (s *RedisStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, storeErr("smembers", key, err)
	}
	return members, nil
}

// IsSetMember reports whether member is in the set at key.
func (s *RedisStore) IsSetMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, storeErr("sismember", key, err)
	}
	return ok, nil
}

// ScanPrefix returns every key starting with prefix. The scan is cursor
// based and unbounded; large namespaces are a known scaling limit of the
// cascade paths, not a correctness issue.
func (s *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storeErr("scan", prefix, err)
	}
	return keys, nil
}

// storeErr wraps a backend failure with enough context to diagnose: the
// operation name and the key it addressed.
func storeErr(op, key string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").
		With("op", op).
		With("key", key).
		Wrap(err)
}
