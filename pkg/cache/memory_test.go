package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryClock(clock.Now), WithMemoryCleanup(time.Hour)}, opts...)...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clock
}

func TestMemoryIncrementAndExpire(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestCache(t)

	for want := int64(1); want <= 3; want++ {
		n, err := mc.Increment(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl, err := mc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Negative(t, ttl, "INCR does not set an expiry")

	ok, err := mc.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(30 * time.Second)
	ttl, err = mc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)

	clock.Advance(30 * time.Second)
	_, err = mc.TTL(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	n, err := mc.Increment(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter restarts after expiry")
}

func TestMemoryExpireMissingKey(t *testing.T) {
	mc, _ := newTestCache(t)
	ok, err := mc.Expire(context.Background(), "nope", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestCache(t)

	require.NoError(t, mc.Set(ctx, "a", "x", 0))
	v, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	_, err = mc.Increment(ctx, "a")
	assert.Error(t, err)

	require.NoError(t, mc.Delete(ctx, "a"))
	_, err = mc.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestCache(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "old", "1", 0))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "new", "2", 0))
	clock.Advance(time.Second)
	_, err := mc.Get(ctx, "old")
	require.NoError(t, err)
	clock.Advance(time.Second)

	require.NoError(t, mc.Set(ctx, "third", "3", 0))
	assert.Equal(t, 2, mc.Len())
	_, err = mc.Get(ctx, "new")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rl:/api/curve/solve:10.0.0.1:42", Key("rl", "/api/curve/solve", "10.0.0.1", 42))
	assert.Equal(t, "rl", Key("rl"))
}
