// Package kvcache provides the shared key-value store used for sessions,
// impersonation tickets, and cached user-context snapshots. It talks to
// redis when a client is available and keeps an in-process copy as a
// fallback, so a redis outage degrades to local-only semantics instead of
// surfacing errors. Callers treat the cache as non-failing: a lookup that
// cannot be satisfied reads as absent.
package kvcache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the contract the session store and user-context cache depend on.
// Implementations never report backend failures; absence is the only
// negative outcome.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Del(ctx context.Context, key string)

	// GetDel removes the entry and returns its previous value. The delete
	// commits before the value is handed back, so concurrent callers for
	// the same key observe at most one hit.
	GetDel(ctx context.Context, key string) ([]byte, bool)
}

// Cache implements Store over an optional redis client plus an in-process
// map. Writes go to both; reads prefer redis and fall back to the local
// copy only when redis is unreachable.
type Cache struct {
	rdb   *redis.Client
	local *memoryCache
}

// New builds a cache over client. A nil client forces local-only operation.
func New(client *redis.Client) *Cache {
	return NewWithClock(client, time.Now)
}

// NewWithClock is New with an injectable clock for the local store, used by
// tests to fast-forward TTLs.
func NewWithClock(client *redis.Client, now func() time.Time) *Cache {
	return &Cache{
		rdb:   client,
		local: newMemoryCache(now),
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb != nil {
		value, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			return value, true
		}
		if errors.Is(err, redis.Nil) {
			return nil, false
		}
		log.Printf("kvcache: redis get failed for %q, serving local copy: %v", key, err)
	}
	return c.local.get(key)
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.local.set(key, value, ttl)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("kvcache: redis set failed for %q, local copy kept: %v", key, err)
	}
}

func (c *Cache) Del(ctx context.Context, key string) {
	c.local.del(key)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.Printf("kvcache: redis delete failed for %q: %v", key, err)
	}
}

func (c *Cache) GetDel(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb != nil {
		value, err := c.rdb.GetDel(ctx, key).Bytes()
		if err == nil {
			c.local.del(key)
			return value, true
		}
		if errors.Is(err, redis.Nil) {
			c.local.del(key)
			return nil, false
		}
		log.Printf("kvcache: redis getdel failed for %q, consuming local copy: %v", key, err)
	}
	return c.local.getDel(key)
}
