// Package health contiene el controller de /healthz.
package health

import (
	"net/http"

	dto "github.com/dropDatabas3/kangaroo/internal/http/dto/health"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/health"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
)

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Health: NewHealthController(s.Health)}
}

type HealthController struct {
	service svc.HealthService
}

func NewHealthController(s svc.HealthService) *HealthController {
	return &HealthController{service: s}
}

// Healthz responde 200 {"status":"ok"} o 503 si el storage no responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	storage, err := c.service.Check(r.Context())
	if err != nil {
		logger.From(r.Context()).Warn("health check failed", logger.Op("healthz"), logger.Err(err))
		helpers.WriteJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Storage: storage})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Storage: storage})
}
