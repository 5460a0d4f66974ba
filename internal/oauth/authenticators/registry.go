package authenticators

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"
)

// Deps son las dependencias compartidas que reciben las factories.
type Deps struct {
	// HTTPClient para plugins que hablan con proveedores externos.
	HTTPClient *http.Client
}

// Factory crea un plugin.
type Factory func(deps Deps) (Authenticator, error)

// Registry mantiene las factories habilitadas y una instancia por tipo.
type Registry struct {
	deps Deps

	mu        sync.RWMutex
	factories map[string]Factory
	cache     map[string]Authenticator
}

func NewRegistry(deps Deps) *Registry {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Registry{
		deps:      deps,
		factories: make(map[string]Factory),
		cache:     make(map[string]Authenticator),
	}
}

// RegisterFactory habilita un tipo. Registrar de nuevo reemplaza la factory.
func (r *Registry) RegisterFactory(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = f
	delete(r.cache, typ)
}

// Register habilita un plugin ya construido (tests, mocks).
func (r *Registry) Register(a Authenticator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[a.Type()] = func(Deps) (Authenticator, error) { return a, nil }
	r.cache[a.Type()] = a
}

// Get devuelve el plugin del tipo, creándolo la primera vez.
func (r *Registry) Get(typ string) (Authenticator, error) {
	r.mu.RLock()
	if a, ok := r.cache[typ]; ok {
		r.mu.RUnlock()
		return a, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// double-check con el lock de escritura
	if a, ok := r.cache[typ]; ok {
		return a, nil
	}
	f, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	a, err := f(r.deps)
	if err != nil {
		return nil, fmt.Errorf("authenticators: create %q: %w", typ, err)
	}
	r.cache[typ] = a
	return a, nil
}

// Available devuelve los tipos habilitados, ordenados.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		out = append(out, typ)
	}
	slices.Sort(out)
	return out
}
