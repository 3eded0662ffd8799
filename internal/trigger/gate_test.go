package trigger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

func TestMemoryGate_Window(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGate(10 * time.Minute)

	ok, _, err := g.Admit(ctx, t0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := g.Admit(ctx, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 7*time.Minute, remaining)

	ok, _, _ = g.Admit(ctx, t0.Add(10*time.Minute))
	assert.True(t, ok, "window reopens after the cooldown")
}

func TestMemoryGate_Release(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGate(10 * time.Minute)

	ok, _, _ := g.Admit(ctx, t0)
	require.True(t, ok)
	require.NoError(t, g.Release(ctx))

	ok, _, _ = g.Admit(ctx, t0.Add(time.Second))
	assert.True(t, ok)
}

func TestMemoryGate_ConcurrentAdmitsOnce(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGate(10 * time.Minute)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := g.Admit(ctx, t0); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}

func newRedisGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGate(client, "lunch:trigger", 10*time.Minute), mr
}

func TestRedisGate_Window(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGate(t)

	ok, _, err := g.Admit(ctx, t0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lunch:trigger"))

	mr.FastForward(4 * time.Minute)
	ok, remaining, err := g.Admit(ctx, t0.Add(4*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 6*time.Minute, remaining)

	mr.FastForward(6 * time.Minute)
	ok, _, err = g.Admit(ctx, t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGate_Release(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGate(t)

	ok, _, _ := g.Admit(ctx, t0)
	require.True(t, ok)
	require.NoError(t, g.Release(ctx))
	assert.False(t, mr.Exists("lunch:trigger"))

	ok, _, _ = g.Admit(ctx, t0)
	assert.True(t, ok)
}

func TestRedisGate_ServerDown(t *testing.T) {
	g, mr := newRedisGate(t)
	mr.Close()

	_, _, err := g.Admit(context.Background(), t0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trigger: redis setnx")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
