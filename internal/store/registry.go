// Package store provee el registry de adapters de almacenamiento y el
// DataAccessLayer que consumen los services.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// Adapter crea conexiones a un motor de almacenamiento.
type Adapter interface {
	// Name del adapter ("memory", "postgres").
	Name() string
	Connect(ctx context.Context, cfg AdapterConfig) (DataAccessLayer, error)
}

// DataAccessLayer es una conexión activa.
type DataAccessLayer interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	// RunInTx ejecuta fn dentro de una transacción: commit si fn devuelve nil,
	// rollback en cualquier otro caso (incluido panic).
	RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error

	// States es el store de AuthenticatorState respaldado por el mismo motor.
	States() repository.AuthenticatorStateRepository
}

// MigratableConnection la implementan los adapters con esquema SQL.
type MigratableConnection interface {
	Migrate(ctx context.Context) (*MigrationResult, error)
}

// AdapterConfig configuración para conectar un adapter.
type AdapterConfig struct {
	Name string
	DSN  string

	MaxConns int
	MinConns int

	// TxTimeout acota cada RunInTx. 0 = DefaultTxTimeout.
	TxTimeout time.Duration
}

// DefaultTxTimeout se aplica cuando AdapterConfig.TxTimeout es 0.
const DefaultTxTimeout = 5 * time.Second

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]Adapter{}
)

// RegisterAdapter registra un adapter. Se llama desde init() del paquete
// del adapter; registrar dos veces el mismo nombre es un error de programación.
func RegisterAdapter(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	name := strings.ToLower(a.Name())
	if _, dup := adapters[name]; dup {
		panic("store: adapter registered twice: " + name)
	}
	adapters[name] = a
}

// Adapters lista los nombres registrados, ordenados.
func Adapters() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	out := make([]string, 0, len(adapters))
	for n := range adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open conecta el adapter cfg.Name. Acepta alias comunes de postgres.
func Open(ctx context.Context, cfg AdapterConfig) (DataAccessLayer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	switch name {
	case "pg", "postgresql":
		name = "postgres"
	case "":
		name = "memory"
	}

	adaptersMu.RLock()
	a, ok := adapters[name]
	adaptersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown adapter %q (registered: %s)", cfg.Name, strings.Join(Adapters(), ", "))
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	return a.Connect(ctx, cfg)
}
