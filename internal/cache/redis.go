// Package cache abre la conexión redis compartida por el state store de
// authenticators y el rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config para conectar a redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout acota el ping inicial. 0 = 5s.
	PingTimeout time.Duration
}

// OpenRedis crea el cliente y verifica la conexión.
func OpenRedis(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("cache: redis addr is required")
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return rdb, nil
}
