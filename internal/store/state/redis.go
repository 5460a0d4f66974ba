package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// DefaultRedisPrefix se usa cuando NewRedis recibe un prefijo vacío.
const DefaultRedisPrefix = "kangaroo:authstate:"

// Redis guarda estados como JSON con TTL; Consume usa GETDEL, que es atómico
// en el servidor.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *Redis) key(id uuid.UUID) string { return r.prefix + id.String() }

func (r *Redis) Save(ctx context.Context, s *repository.AuthenticatorState) error {
	ttl, err := prepare(s, r.now())
	if err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	payload, err := json.Marshal(toRecord(s))
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, r.key(s.ID), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	if !ok {
		return fmt.Errorf("state: save %s: %w", s.ID, repository.ErrConflict)
	}
	return nil
}

func (r *Redis) Consume(ctx context.Context, id uuid.UUID) (*repository.AuthenticatorState, error) {
	raw, err := r.rdb.GetDel(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("state: %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("state: redis getdel: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", id, err)
	}
	if !r.now().Before(rec.ExpiresAt) {
		return nil, fmt.Errorf("state: %s expired: %w", id, repository.ErrNotFound)
	}
	return rec.toState(), nil
}
