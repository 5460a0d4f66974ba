// Package memory implementa un DataAccessLayer en memoria para dev y tests.
//
// Las transacciones son copy-on-write: RunInTx toma el lock global, trabaja
// sobre una copia de los índices y la publica sólo si fn termina sin error.
// Los valores guardados nunca se mutan in-place (Save reemplaza), así que
// alcanza con copiar los maps de primer nivel.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/store"
	"github.com/dropDatabas3/kangaroo/internal/store/state"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(_ context.Context, cfg store.AdapterConfig) (store.DataAccessLayer, error) {
	s := New()
	s.txTimeout = cfg.TxTimeout
	return s, nil
}

// Store es el DataAccessLayer en memoria.
type Store struct {
	mu        sync.Mutex
	data      *data
	states    repository.AuthenticatorStateRepository
	txTimeout time.Duration
	now       func() time.Time
}

// New crea un Store vacío con un state store go-cache.
func New() *Store {
	return &Store{
		data:   newData(),
		states: state.NewMemory(),
		now:    time.Now,
	}
}

func (s *Store) Name() string                  { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                  { return nil }

func (s *Store) States() repository.AuthenticatorStateRepository { return s.states }

func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&repos{d: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// ─── datos ───

type roleRow struct {
	role     repository.Role
	scopeIDs []uuid.UUID
}

type tokenRow struct {
	token    repository.OAuthToken
	scopeIDs []uuid.UUID
}

type data struct {
	applications map[uuid.UUID]repository.Application
	scopes       map[uuid.UUID]repository.ApplicationScope
	roles        map[uuid.UUID]roleRow
	clients      map[uuid.UUID]repository.Client
	users        map[uuid.UUID]repository.User
	identities   map[uuid.UUID]repository.UserIdentity
	tokens       map[uuid.UUID]tokenRow
}

func newData() *data {
	return &data{
		applications: map[uuid.UUID]repository.Application{},
		scopes:       map[uuid.UUID]repository.ApplicationScope{},
		roles:        map[uuid.UUID]roleRow{},
		clients:      map[uuid.UUID]repository.Client{},
		users:        map[uuid.UUID]repository.User{},
		identities:   map[uuid.UUID]repository.UserIdentity{},
		tokens:       map[uuid.UUID]tokenRow{},
	}
}

func (d *data) clone() *data {
	return &data{
		applications: copyMap(d.applications),
		scopes:       copyMap(d.scopes),
		roles:        copyMap(d.roles),
		clients:      copyMap(d.clients),
		users:        copyMap(d.users),
		identities:   copyMap(d.identities),
		tokens:       copyMap(d.tokens),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneConfig(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
