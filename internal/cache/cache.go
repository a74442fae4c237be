// Package cache provides the profile cache consulted by the auth flow
// coordinator before hitting the document store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
)

// ErrMiss is returned when the cache has no entry for the key.
var ErrMiss = errors.New("cache miss")

// ProfileCache caches profiles by user id.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	Set(ctx context.Context, p profile.Profile) error
	Delete(ctx context.Context, userID string) error
}

// Memory is a TTL map cache, the default backend.
type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memoryEntry
}

type memoryEntry struct {
	p       profile.Profile
	expires time.Time
}

var _ ProfileCache = (*Memory)(nil)

// NewMemory creates a memory cache. ttl <= 0 disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, m: make(map[string]memoryEntry)}
}

func (c *Memory) Get(_ context.Context, userID string) (profile.Profile, error) {
	c.mu.RLock()
	entry, ok := c.m[userID]
	c.mu.RUnlock()

	if !ok {
		return profile.Profile{}, ErrMiss
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.m, userID)
		c.mu.Unlock()
		return profile.Profile{}, ErrMiss
	}
	return entry.p, nil
}

func (c *Memory) Set(_ context.Context, p profile.Profile) error {
	entry := memoryEntry{p: p}
	if c.ttl > 0 {
		entry.expires = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.m[p.ID] = entry
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	delete(c.m, userID)
	c.mu.Unlock()
	return nil
}

// Redis caches profiles in Redis as JSON. Used when several API instances
// should share the cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ProfileCache = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(userID string) string { return "profile:" + userID }

func (c *Redis) Get(ctx context.Context, userID string) (profile.Profile, error) {
	data, err := c.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return profile.Profile{}, ErrMiss
	}
	if err != nil {
		return profile.Profile{}, err
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (c *Redis) Set(ctx context.Context, p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(p.ID), data, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, redisKey(userID)).Err()
}
