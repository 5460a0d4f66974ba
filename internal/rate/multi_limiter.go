package rate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Factory construye un Limiter para un límite y ventana.
type Factory func(max int, window time.Duration) Limiter

// RedisFactory y MemoryFactory adaptan los constructores a Factory.
func RedisFactory(l *RedisLimiter) Factory {
	return func(max int, window time.Duration) Limiter {
		return NewRedisLimiter(l.Client, l.Prefix, max, window)
	}
}

func MemoryFactory() Factory {
	return func(max int, window time.Duration) Limiter { return NewMemoryLimiter(max, window) }
}

// MultiLimiter permite límites distintos por ruta manteniendo el mismo
// algoritmo; cachea un limiter por configuración limit+window.
type MultiLimiter struct {
	factory Factory
	mu      sync.RWMutex
	// Cache de limiters por configuración para eficiencia
	limiters map[string]Limiter
}

func NewMultiLimiter(f Factory) *MultiLimiter {
	return &MultiLimiter{factory: f, limiters: make(map[string]Limiter)}
}

func (m *MultiLimiter) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	configKey := fmt.Sprintf("%d:%s", limit, window.String())

	m.mu.RLock()
	limiter, exists := m.limiters[configKey]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Double-check
		if limiter, exists = m.limiters[configKey]; !exists {
			limiter = m.factory(limit, window)
			m.limiters[configKey] = limiter
		}
		m.mu.Unlock()
	}
	return limiter.Allow(ctx, key)
}

// Fixed fija limit+window y expone la interfaz Limiter.
func (m *MultiLimiter) Fixed(limit int, window time.Duration) Limiter {
	return fixed{m: m, limit: limit, window: window}
}

type fixed struct {
	m      *MultiLimiter
	limit  int
	window time.Duration
}

func (f fixed) Allow(ctx context.Context, key string) (Result, error) {
	return f.m.AllowWithLimits(ctx, key, f.limit, f.window)
}
