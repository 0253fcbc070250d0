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

package cloud

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(8, time.Minute, time.Hour)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	stats := c.Stats(ctx)
	assert.Equal(t, CacheBackendMemory, stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestMemoryCacheEntryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(8, time.Minute, time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("a"), 10*time.Second))
	require.NoError(t, c.Set(ctx, "default", []byte("b"), 0))

	now = now.Add(30 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "default")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(0), c.Stats(ctx).Entries)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(8, time.Minute, time.Hour)
	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute, time.Hour)
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, err := c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestJSONHelpers(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	ctx := context.Background()
	c := NewMemoryCache(8, time.Minute, time.Hour)

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "n", Count: 2}, 0))
	var out payload
	require.NoError(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, payload{Name: "n", Count: 2}, out)

	assert.ErrorIs(t, GetJSON(ctx, c, "none", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	assert.Error(t, GetJSON(ctx, c, "bad", &out))
}

func TestNewCacheRejectsUnknownBackend(t *testing.T) {
	_, _, err := NewCache(context.Background(), CacheSettings{Backend: "memcached"})
	assert.Error(t, err)

	c, closer, err := NewCache(context.Background(), CacheSettings{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	assert.NoError(t, closer())
}

func TestNewCacheUsesMaxTTL(t *testing.T) {
	c, _, err := NewCache(context.Background(), CacheSettings{MaxTTLSeconds: 3 * 86400})
	require.NoError(t, err)
	memory := c.(*MemoryCache)
	assert.Equal(t, 72*time.Hour, memory.maxTTL)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memory.now = func() time.Time { return now }
	require.NoError(t, memory.Set(ctx, "session", []byte("s"), 48*time.Hour))
	now = now.Add(30 * time.Hour)
	_, err = memory.Get(ctx, "session")
	assert.NoError(t, err)
}

func TestServiceClientsCacheCoversLongestTTL(t *testing.T) {
	config := NewConfig()
	config.Discovery.SessionTTLSeconds = 2 * 86400
	config.Highlights.CacheTTLSeconds = 3 * 86400

	clients, err := NewCloudServiceClients(context.Background(), config)
	require.NoError(t, err)
	defer func() { assert.NoError(t, clients.Close()) }()

	memory, ok := clients.Cache.(*MemoryCache)
	require.True(t, ok)
	assert.Equal(t, 72*time.Hour, memory.maxTTL)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	c := NewRedisCache(client, "movie-discovery:", time.Minute)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.True(t, server.Exists("movie-discovery:k"))
	assert.False(t, server.Exists("k"))
	assert.Equal(t, time.Minute, server.TTL("movie-discovery:k"))

	require.NoError(t, c.Set(ctx, "short", []byte("s"), 10*time.Second))
	assert.Equal(t, 10*time.Second, server.TTL("movie-discovery:short"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	server.FastForward(11 * time.Second)
	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	stats := c.Stats(ctx)
	assert.Equal(t, CacheBackendRedis, stats.Backend)
	assert.Equal(t, int64(0), stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
}

func TestRedisCacheReportsServerErrors(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, "", time.Minute)

	server.SetError("LOADING")
	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Error(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, int64(-1), c.Stats(ctx).Entries)
}

func TestNewCacheConnectsToRedis(t *testing.T) {
	server := miniredis.RunT(t)
	c, closer, err := NewCache(context.Background(), CacheSettings{
		Backend:   CacheBackendRedis,
		RedisAddr: server.Addr(),
		KeyPrefix: "p:",
	})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, server.Exists("p:k"))
	assert.Equal(t, 15*time.Minute, server.TTL("p:k"))
	assert.NoError(t, closer())

	server.Close()
	_, _, err = NewCache(context.Background(), CacheSettings{Backend: CacheBackendRedis, RedisAddr: server.Addr()})
	assert.ErrorContains(t, err, "connect to redis")
}

// increment parses current as a counter and adds one.
func increment(current []byte) ([]byte, error) {
	n := 0
	if current != nil {
		var err error
		if n, err = strconv.Atoi(string(current)); err != nil {
			return nil, err
		}
	}
	return []byte(strconv.Itoa(n + 1)), nil
}

func assertUpdateSemantics(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	// Every failed optimistic attempt implies another writer committed, so
	// fewer writers than maxUpdateAttempts always succeed.
	var wg sync.WaitGroup
	for range maxUpdateAttempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Update(ctx, "counter", 0, increment))
		}()
	}
	wg.Wait()
	got, err := c.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(maxUpdateAttempts), string(got))

	abort := errors.New("abort")
	err = c.Update(ctx, "counter", 0, func([]byte) ([]byte, error) { return nil, abort })
	assert.ErrorIs(t, err, abort)
	got, err = c.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(maxUpdateAttempts), string(got))

	var sawMissing bool
	require.NoError(t, c.Update(ctx, "fresh", 0, func(current []byte) ([]byte, error) {
		sawMissing = current == nil
		return []byte("x"), nil
	}))
	assert.True(t, sawMissing)
}

func TestMemoryCacheUpdate(t *testing.T) {
	assertUpdateSemantics(t, NewMemoryCache(8, time.Minute, time.Hour))
}

func TestRedisCacheUpdate(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	c := NewRedisCache(client, "movie-discovery:", time.Minute)

	assertUpdateSemantics(t, c)
	assert.Equal(t, time.Minute, server.TTL("movie-discovery:counter"))
}

func TestRedisCacheUpdateGivesUpUnderContention(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	c := NewRedisCache(client, "", time.Minute)

	calls := 0
	err := c.Update(ctx, "k", 0, func(current []byte) ([]byte, error) {
		calls++
		// Another writer changes the watched key before every commit.
		require.NoError(t, server.Set("k", strconv.Itoa(calls)))
		return []byte("mine"), nil
	})
	assert.ErrorIs(t, err, ErrUpdateConflict)
	assert.Equal(t, maxUpdateAttempts, calls)
}
