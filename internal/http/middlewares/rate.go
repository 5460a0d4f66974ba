package middlewares

import (
	"fmt"
	"net"
	"net/netip"
	"net/http"
	"strconv"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/rate"
)

// TrustedProxies son las redes cuyos X-Forwarded-For se aceptan. Vacío:
// nunca se lee el header y la IP es la de RemoteAddr.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies acepta IPs sueltas o CIDRs.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (p TrustedProxies) trusts(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, pr := range p {
		if pr.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP devuelve la IP de RemoteAddr salvo que sea un proxy confiable. En
// ese caso recorre X-Forwarded-For de derecha a izquierda y se queda con el
// primer salto no confiable; lo que está a su izquierda lo escribió el cliente.
func (p TrustedProxies) ClientIP(r *http.Request) string {
	ip := remoteHost(r)
	if len(p) == 0 || !p.trusts(ip) {
		return ip
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return ip
		}
		if !p.trusts(hop) {
			return hop
		}
		ip = hop
	}
	return ip
}

// IPRateKey usa sólo la IP.
func (p TrustedProxies) IPRateKey(r *http.Request) string {
	return p.ClientIP(r)
}

// IPPathRateKey separa contadores por endpoint (/token vs /authorize) sin
// leer el body.
func (p TrustedProxies) IPPathRateKey(r *http.Request) string {
	return p.ClientIP(r) + "|" + r.URL.Path
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// RateLimitConfig configura WithRateLimit.
type RateLimitConfig struct {
	Limiter rate.Limiter
	// KeyFunc por defecto es TrustedProxies.IPPathRateKey.
	KeyFunc        RateKeyFunc
	TrustedProxies TrustedProxies
	Whitelist      []string // paths excluidos (ej: /healthz)
	// OnReject se llama con el path cuando un request es rechazado (métricas).
	OnReject func(path string)
}

// WithRateLimit corta con 429 rate_limit_exceeded cuando el limiter lo
// indica. Si el limiter falla el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = cfg.TrustedProxies.IPPathRateKey
	}

	whitelist := make(map[string]struct{}, len(cfg.Whitelist))
	for _, p := range cfg.Whitelist {
		whitelist[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := whitelist[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error, allowing request",
					logger.Op("rate_limit"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			if !res.Allowed {
				if res.RetryAfter > 0 {
					secs := int((res.RetryAfter + time.Second - 1) / time.Second)
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				if cfg.OnReject != nil {
					cfg.OnReject(r.URL.Path)
				}
				httperrors.WriteError(w, httperrors.ErrRateLimited)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
