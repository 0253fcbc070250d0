// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with external services.
// This file defines the response cache shared by the TMDB client, the
// highlight service and the discovery session store. Two implementations are
// provided: an in-process expirable LRU and a Redis backed cache for
// deployments running more than one replica.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUpdateConflict is returned by Cache.Update when the key kept changing
	// under concurrent writers.
	ErrUpdateConflict = errors.New("cache update conflict")
)

// maxUpdateAttempts bounds the optimistic retries of RedisCache.Update.
const maxUpdateAttempts = 10

// CacheStats reports cache usage since startup.
type CacheStats struct {
	Backend string `json:"backend"`
	Entries int64  `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

// Cache is a byte oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value of key or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key for ttl; a zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the value of key with fn(current) for ttl.
	// current is nil when key is absent. An error from fn aborts the update
	// and is returned as is.
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error
	// Stats returns usage counters.
	Stats(ctx context.Context) CacheStats
}

// GetJSON reads key and decodes it into out.
func GetJSON(ctx context.Context, cache Cache, key string, out any) error {
	raw, err := cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, cache Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	return cache.Set(ctx, key, raw, ttl)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process LRU. Every entry carries its own deadline; the
// LRU itself expires entries after the longest TTL the cache accepts. Writes
// are serialized so Update is atomic with respect to Set and Delete.
type MemoryCache struct {
	mu         sync.Mutex
	lru        *expirable.LRU[string, memoryEntry]
	defaultTTL time.Duration
	maxTTL     time.Duration
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewMemoryCache creates a cache holding at most size entries.
//
// Inputs:
//   - size: Maximum number of entries; non-positive values default to 1024.
//   - defaultTTL: TTL applied when Set receives zero.
//   - maxTTL: Upper bound of any entry lifetime; zero means 24 hours.
func NewMemoryCache(size int, defaultTTL time.Duration, maxTTL time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	if maxTTL <= 0 {
		maxTTL = 24 * time.Hour
	}
	if defaultTTL <= 0 || defaultTTL > maxTTL {
		defaultTTL = maxTTL
	}
	return &MemoryCache{
		lru:        expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.lookup(key)
	if !ok {
		m.misses.Add(1)
		return nil, ErrCacheMiss
	}
	m.hits.Add(1)
	return value, nil
}

func (m *MemoryCache) lookup(key string) ([]byte, bool) {
	entry, ok := m.lru.Get(key)
	if !ok || !m.now().Before(entry.expires) {
		if ok {
			m.lru.Remove(key)
		}
		return nil, false
	}
	return entry.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, value, ttl)
	return nil
}

func (m *MemoryCache) store(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	ttl = min(ttl, m.maxTTL)
	stored := make([]byte, len(value))
	copy(stored, value)
	m.lru.Add(key, memoryEntry{value: stored, expires: m.now().Add(ttl)})
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
	return nil
}

func (m *MemoryCache) Update(_ context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, _ := m.lookup(key)
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.store(key, next, ttl)
	return nil
}

func (m *MemoryCache) Stats(_ context.Context) CacheStats {
	return CacheStats{
		Backend: CacheBackendMemory,
		Entries: int64(m.lru.Len()),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}
}

// RedisCache stores entries in Redis under a common key prefix.
type RedisCache struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, prefix string, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.hits.Add(1)
	return raw, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a WATCH on the key and retries when another client
// changes the key before the write commits.
func (r *RedisCache) Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	k := r.key(key)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, ttl)
			return nil
		})
		return err
	}
	for range maxUpdateAttempts {
		err := r.client.Watch(ctx, txf, k)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis update %s: %w", key, ErrUpdateConflict)
}

// Stats reports the size of the whole Redis database, which includes keys
// written by other clients sharing it.
func (r *RedisCache) Stats(ctx context.Context) CacheStats {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		size = -1
	}
	return CacheStats{
		Backend: CacheBackendRedis,
		Entries: size,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}
}

// NewCache builds the cache selected by settings. The Redis connection is
// verified with a PING.
//
// Inputs:
//   - ctx: Bounds the Redis PING.
//   - settings: The [cache] configuration section.
//
// Outputs:
//   - Cache: The selected cache.
//   - func() error: Closes the underlying connection, a no-op for memory.
//   - error: An unknown backend or an unreachable Redis server.
func NewCache(ctx context.Context, settings CacheSettings) (Cache, func() error, error) {
	switch settings.Backend {
	case "", CacheBackendMemory:
		return NewMemoryCache(settings.Size, settings.DefaultTTL(), settings.MaxTTL()), func() error { return nil }, nil
	case CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", settings.RedisAddr, err)
		}
		return NewRedisCache(client, settings.KeyPrefix, settings.DefaultTTL()), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", settings.Backend)
	}
}
