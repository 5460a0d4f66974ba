package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// Memory guarda estados en un go-cache con TTL por entrada.
type Memory struct {
	mu  sync.Mutex
	c   *gocache.Cache
	now func() time.Time
}

// NewMemory crea un store con cleanup periódico de entradas vencidas.
func NewMemory() *Memory {
	return &Memory{
		c:   gocache.New(gocache.NoExpiration, time.Minute),
		now: time.Now,
	}
}

func (m *Memory) Save(ctx context.Context, s *repository.AuthenticatorState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl, err := prepare(s, m.now())
	if err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	// Add falla si la clave ya existe: un id nunca se reutiliza.
	if err := m.c.Add(s.ID.String(), toRecord(s), ttl); err != nil {
		return fmt.Errorf("state: save %s: %w", s.ID, repository.ErrConflict)
	}
	return nil
}

func (m *Memory) Consume(ctx context.Context, id uuid.UUID) (*repository.AuthenticatorState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := id.String()

	m.mu.Lock()
	v, found := m.c.Get(key)
	if found {
		m.c.Delete(key)
	}
	m.mu.Unlock()

	if !found {
		return nil, fmt.Errorf("state: %s: %w", id, repository.ErrNotFound)
	}
	rec := v.(record)
	if !m.now().Before(rec.ExpiresAt) {
		return nil, fmt.Errorf("state: %s expired: %w", id, repository.ErrNotFound)
	}
	return rec.toState(), nil
}
