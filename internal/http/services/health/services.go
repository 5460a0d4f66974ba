// Package health contiene el service de health check.
package health

import (
	"context"
	"time"

	"github.com/dropDatabas3/kangaroo/internal/store"
)

// Deps contiene las dependencias del service.
type Deps struct {
	DAL store.DataAccessLayer
	// Timeout del ping al storage. Default 2s.
	Timeout time.Duration
}

// HealthService verifica que el storage responda.
type HealthService interface {
	Check(ctx context.Context) (storage string, err error)
}

// Services agrupa todos los services del dominio health.
type Services struct {
	Health HealthService
}

// NewServices crea el agregador de services health.
func NewServices(d Deps) Services {
	return Services{Health: NewHealthService(d)}
}

type healthService struct {
	deps Deps
}

func NewHealthService(d Deps) HealthService {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	return &healthService{deps: d}
}

func (s *healthService) Check(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return s.deps.DAL.Name(), s.deps.DAL.Ping(ctx)
}
