package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"PerfectRatio/pkg/cache"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindow counts requests per key in fixed windows on a shared cache, so
// every API replica pointing at the same Redis enforces one budget.
type FixedWindow struct {
	store  cache.Service
	limit  int
	window time.Duration
	prefix string
}

// NewFixedWindow allows limit requests per key per window. A limit <= 0 disables limiting.
func NewFixedWindow(store cache.Service, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{store: store, limit: limit, window: window, prefix: "rl"}
}

// Allow consumes one request from key's current window.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if f.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	k := cache.Key(f.prefix, key)
	n, err := f.store.Increment(ctx, k)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit increment: %w", err)
	}
	if n == 1 {
		if _, err := f.store.Expire(ctx, k, f.window); err != nil {
			return Decision{}, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	d := Decision{Limit: f.limit, Allowed: n <= int64(f.limit)}
	if d.Allowed {
		d.Remaining = f.limit - int(n)
		return d, nil
	}

	ttl, err := f.store.TTL(ctx, k)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		d.RetryAfter = 0
	case err != nil:
		return Decision{}, fmt.Errorf("ratelimit ttl: %w", err)
	case ttl < 0:
		// a previous Expire was lost; restart the window
		_, _ = f.store.Expire(ctx, k, f.window)
		d.RetryAfter = f.window
	default:
		d.RetryAfter = ttl
	}
	return d, nil
}

// TokenBucket is an in-process limiter for a single long-lived client, such
// as one WebSocket connection. Each key gets its own rate.Limiter.
type TokenBucket struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	capacity int
	refill   rate.Limit
	now      func() time.Time
}

func NewTokenBucket(capacity, refillPerSec float64) *TokenBucket {
	return &TokenBucket{
		m:        make(map[string]*rate.Limiter),
		capacity: int(capacity),
		refill:   rate.Limit(refillPerSec),
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.m[key]
	if !ok {
		lim = rate.NewLimiter(l.refill, l.capacity)
		l.m[key] = lim
	}
	l.mu.Unlock()
	return lim.AllowN(l.now(), 1)
}

// Forget drops key's bucket.
func (l *TokenBucket) Forget(key string) {
	l.mu.Lock()
	delete(l.m, key)
	l.mu.Unlock()
}
