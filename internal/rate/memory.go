package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el mismo fixed window sobre go-cache. Los contadores
// viven en el proceso: con varias réplicas usar RedisLimiter.
type MemoryLimiter struct {
	c      *gocache.Cache
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		prefix: "rl:",
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	ttl := winStart.Add(l.window).Sub(now)
	k := windowKey(l.prefix, key, winStart)

	// Add falla si ya existe; en ese caso sólo incrementamos
	_ = l.c.Add(k, int64(0), ttl)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: arranca una ventana nueva
		l.c.Set(k, int64(1), ttl)
		hits = 1
	}
	return result(hits, l.max, ttl, l.window), nil
}
