package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// memoryItem stores a cached value; a zero expireAt never expires.
type memoryItem struct {
	value    string
	expireAt time.Time
	lastUsed time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && !now.Before(m.expireAt)
}

// MemoryCache implements Service in process, with LRU eviction. It serves a
// single replica when Redis is not configured.
type MemoryCache struct {
	data          map[string]*memoryItem
	mutex         sync.Mutex
	maxSize       int
	now           func() time.Time
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         10_000,
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:          make(map[string]*memoryItem),
		maxSize:       cfg.MaxSize,
		now:           cfg.Now,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

// lookup returns a live item and drops an expired one. Caller holds the mutex.
func (mc *MemoryCache) lookup(key string, now time.Time) (*memoryItem, bool) {
	item, ok := mc.data[key]
	if !ok {
		return nil, false
	}
	if item.expired(now) {
		delete(mc.data, key)
		return nil, false
	}
	item.lastUsed = now
	return item, true
}

func (mc *MemoryCache) put(key string, item *memoryItem) {
	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}
	mc.data[key] = item
}

func (mc *MemoryCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item := &memoryItem{value: value, lastUsed: now}
	if expiration > 0 {
		item.expireAt = now.Add(expiration)
	}
	mc.put(key, item)
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) (string, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	item, ok := mc.lookup(key, mc.now())
	if !ok {
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

// Increment follows Redis INCR: a missing key starts at 0 and keeps no expiry.
func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, ok := mc.lookup(key, now)
	if !ok {
		mc.put(key, &memoryItem{value: "1", lastUsed: now})
		return 1, nil
	}

	n, err := strconv.ParseInt(item.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache: value at %q is not an integer", key)
	}
	n++
	item.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, ok := mc.lookup(key, now)
	if !ok {
		return false, nil
	}
	item.expireAt = now.Add(expiration)
	return true, nil
}

func (mc *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, ok := mc.lookup(key, now)
	if !ok {
		return 0, ErrCacheMiss
	}
	if item.expireAt.IsZero() {
		return -1, nil
	}
	return item.expireAt.Sub(now), nil
}

func (mc *MemoryCache) Ping(context.Context) error { return nil }

// Len reports the number of stored keys, including ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, item := range mc.data {
		if oldestKey == "" || item.lastUsed.Before(oldest) {
			oldestKey, oldest = key, item.lastUsed
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.cleanupTicker.C:
			mc.mutex.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, key)
				}
			}
			mc.mutex.Unlock()
		case <-mc.done:
			return
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}
