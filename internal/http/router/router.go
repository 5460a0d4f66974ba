// Package router arma la tabla de rutas (chi) y el middleware chain de cada
// endpoint.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	metrics "github.com/dropDatabas3/kangaroo/internal/http"
	healthctrl "github.com/dropDatabas3/kangaroo/internal/http/controllers/health"
	ctrl "github.com/dropDatabas3/kangaroo/internal/http/controllers/oauth"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	mw "github.com/dropDatabas3/kangaroo/internal/http/middlewares"
	"github.com/dropDatabas3/kangaroo/internal/rate"
)

// Deps contiene las dependencias para el router.
type Deps struct {
	OAuth  *ctrl.Controllers
	Health *healthctrl.Controllers
	// Metrics es el handler de /metrics; nil = sin ruta.
	Metrics http.Handler
	// RateLimiter opcional, por IP + path.
	RateLimiter rate.Limiter
	// TrustedProxies habilita X-Forwarded-For para la IP del rate limit.
	TrustedProxies mw.TrustedProxies
	// RequestTimeout acota el contexto de cada request OAuth.
	RequestTimeout time.Duration
}

// New devuelve el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	oauth := func(h http.HandlerFunc) http.Handler { return oauthHandler(deps, h) }

	r.NotFound(oauth(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithStatus(http.StatusNotFound).WithDetail("unknown endpoint"))
	}).ServeHTTP)
	r.MethodNotAllowed(oauth(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	}).ServeHTTP)

	if c := deps.OAuth; c != nil {
		// RFC 6749 §3.1: GET obligatorio, POST opcional
		r.Method(http.MethodGet, "/authorize", oauth(c.Authorize.Authorize))
		r.Method(http.MethodPost, "/authorize", oauth(c.Authorize.Authorize))
		r.Method(http.MethodGet, "/authorize/callback", oauth(c.Authorize.Callback))
		r.Method(http.MethodPost, "/authorize/callback", oauth(c.Authorize.Callback))

		r.Method(http.MethodPost, "/token", oauth(c.Token.Token))
		r.Method(http.MethodPost, "/revoke", oauth(c.Revoke.Revoke))
		r.Method(http.MethodGet, "/tokeninfo", oauth(c.TokenInfo.TokenInfo))
	}

	if deps.Health != nil {
		r.Method(http.MethodGet, "/healthz", mw.ChainFunc(deps.Health.Health.Healthz,
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithNoStore(),
		))
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return metrics.WithMetrics(r)
}

// oauthHandler crea el middleware chain para endpoints OAuth.
func oauthHandler(deps Deps, handler http.Handler) http.Handler {
	chain := []mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
	}

	if deps.RateLimiter != nil {
		chain = append(chain, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:        deps.RateLimiter,
			TrustedProxies: deps.TrustedProxies,
			OnReject:       metrics.RecordRateLimitReject,
		}))
	}

	// Logging al final, así el logger scoped llega a controllers y services
	chain = append(chain, mw.WithLogging(), mw.WithTimeout(deps.RequestTimeout))

	return mw.Chain(handler, chain...)
}
