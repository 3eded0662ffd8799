package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Gate admits at most one trigger per cooldown window.
type Gate interface {
	// Admit records now as the last accepted trigger and returns true, or
	// returns false with the time left until the window reopens. The check
	// and the record are one atomic step.
	Admit(ctx context.Context, now time.Time) (bool, time.Duration, error)
	// Release forgets the last admission so the next call is accepted.
	Release(ctx context.Context) error
}

// MemoryGate keeps the last admission in process memory. State resets when
// the process restarts.
type MemoryGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time
}

// NewMemoryGate creates an empty MemoryGate.
func NewMemoryGate(cooldown time.Duration) *MemoryGate {
	return &MemoryGate{cooldown: cooldown}
}

func (g *MemoryGate) Admit(_ context.Context, now time.Time) (bool, time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.cooldown {
			return false, g.cooldown - elapsed, nil
		}
	}
	g.last = now
	return true, 0, nil
}

func (g *MemoryGate) Release(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = time.Time{}
	return nil
}

// RedisGate shares the cooldown between replicas through a key that expires
// when the window closes.
type RedisGate struct {
	client   redis.Cmdable
	key      string
	cooldown time.Duration
}

// NewRedisGate creates a RedisGate storing its window under key.
func NewRedisGate(client redis.Cmdable, key string, cooldown time.Duration) *RedisGate {
	return &RedisGate{client: client, key: key, cooldown: cooldown}
}

func (g *RedisGate) Admit(ctx context.Context, now time.Time) (bool, time.Duration, error) {
	// The key can expire between SETNX and PTTL; one more attempt settles it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.client.SetNX(ctx, g.key, now.UTC().Format(time.RFC3339Nano), g.cooldown).Result()
		if err != nil {
			return false, 0, eris.Wrap(err, "trigger: redis setnx")
		}
		if ok {
			return true, 0, nil
		}
		ttl, err := g.client.PTTL(ctx, g.key).Result()
		if err != nil {
			return false, 0, eris.Wrap(err, "trigger: redis pttl")
		}
		if ttl > 0 {
			return false, ttl, nil
		}
	}
	return false, g.cooldown, nil
}

func (g *RedisGate) Release(ctx context.Context) error {
	if err := g.client.Del(ctx, g.key).Err(); err != nil {
		return eris.Wrap(err, "trigger: redis del")
	}
	return nil
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "trigger: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "trigger: redis ping")
	}
	return client, nil
}
