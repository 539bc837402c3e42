package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v      []byte
	exp    time.Time
	access time.Time
}

// MemoryCache implements BytesCache in process with TTL and LRU eviction.
type MemoryCache struct {
	mu            sync.Mutex
	m             map[string]*entry
	maxSize       int
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
	now           func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		m:             make(map[string]*entry),
		maxSize:       cfg.MaxSize,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
		now:           time.Now,
	}
	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.m[key]
	if !ok {
		return nil, false, nil
	}
	now := mc.now()
	if !e.exp.IsZero() && now.After(e.exp) {
		delete(mc.m, key)
		return nil, false, nil
	}
	e.access = now
	return e.v, true, nil
}

func (mc *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.m[key]; !exists && len(mc.m) >= mc.maxSize {
		mc.evictLRU()
	}

	now := mc.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	mc.m[key] = &entry{v: value, exp: exp, access: now}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.m)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for k, e := range mc.m {
		if oldestKey == "" || e.access.Before(oldest) {
			oldestKey, oldest = k, e.access
		}
	}
	if oldestKey != "" {
		delete(mc.m, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
			mc.mu.Lock()
			now := mc.now()
			for k, e := range mc.m {
				if !e.exp.IsZero() && now.After(e.exp) {
					delete(mc.m, k)
				}
			}
			mc.mu.Unlock()
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
