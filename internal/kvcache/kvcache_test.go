package kvcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisBackedRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	cache.Set(ctx, "greeting", []byte("hello"), time.Minute)
	value, ok := cache.Get(ctx, "greeting")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), value)

	cache.Del(ctx, "greeting")
	_, ok = cache.Get(ctx, "greeting")
	require.False(t, ok)

	// Deleting an absent key is silently fine.
	cache.Del(ctx, "greeting")
}

func TestRedisExpiryIsAuthoritative(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	cache.Set(ctx, "short", []byte("lived"), time.Second)
	mr.FastForward(2 * time.Second)

	_, ok := cache.Get(ctx, "short")
	require.False(t, ok)
}

func TestFallbackServesWhenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cache := New(redis.NewClient(&redis.Options{Addr: addr}))
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"), time.Minute)
	value, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)
}

func TestNilClientIsLocalOnly(t *testing.T) {
	cache := New(nil)
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"), 0)
	value, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)
}

func TestLocalTTLEvaluatedLazily(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	cache := NewWithClock(nil, clock)
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"), 30*time.Second)
	_, ok := cache.Get(ctx, "k")
	require.True(t, ok)

	mu.Lock()
	now = now.Add(31 * time.Second)
	mu.Unlock()

	_, ok = cache.Get(ctx, "k")
	require.False(t, ok)
}

func TestGetDelConsumesExactlyOnce(t *testing.T) {
	for name, client := range map[string]*redis.Client{
		"redis": redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()}),
		"local": nil,
	} {
		t.Run(name, func(t *testing.T) {
			cache := New(client)
			ctx := context.Background()
			cache.Set(ctx, "once", []byte("payload"), time.Minute)

			const attempts = 16
			var hits atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, ok := cache.GetDel(ctx, "once"); ok {
						hits.Add(1)
					}
				}()
			}
			wg.Wait()

			require.Equal(t, int32(1), hits.Load())
			_, ok := cache.Get(ctx, "once")
			require.False(t, ok)
		})
	}
}
