package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/rate"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := ChainFunc(ok, mk("a"), mk("b"), mk("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, seen, 32)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestWithLogging_ScopedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Info("inside")
		w.WriteHeader(http.StatusBadRequest)
	}), WithRequestID(), WithLogging())

	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "request completed with client error", entries[1].Message)
	assert.EqualValues(t, 400, entries[1].ContextMap()["status"])
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRecover())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"server_error"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestWithNoStoreAndSecurityHeaders(t *testing.T) {
	h := ChainFunc(ok, WithSecurityHeaders(), WithNoStore())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestWithTimeout(t *testing.T) {
	var deadline time.Time
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}), WithTimeout(time.Second))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, deadline.IsZero())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, errors.New("redis down")
}

func TestWithRateLimit(t *testing.T) {
	var rejected []string
	h := ChainFunc(ok, WithRateLimit(RateLimitConfig{
		Limiter:   rate.NewMemoryLimiter(1, time.Minute),
		Whitelist: []string{"/healthz"},
		OnReject:  func(p string) { rejected = append(rejected, p) },
	}))

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do("/token")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := do("/token")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, []string{"/token"}, rejected)

	// otro path, otro contador; whitelist nunca cuenta
	assert.Equal(t, http.StatusNoContent, do("/authorize").Code)
	assert.Equal(t, http.StatusNoContent, do("/healthz").Code)
	assert.Equal(t, http.StatusNoContent, do("/healthz").Code)

	failOpen := ChainFunc(ok, WithRateLimit(RateLimitConfig{Limiter: failingLimiter{}}))
	rec := httptest.NewRecorder()
	failOpen.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/token", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	// sin proxies confiables el header se ignora
	var none TrustedProxies
	assert.Equal(t, "192.0.2.1", none.ClientIP(req))
	assert.Equal(t, "192.0.2.1|/", none.IPPathRateKey(req))

	proxies, err := ParseTrustedProxies([]string{"192.0.2.1", "10.0.0.0/8", " "})
	require.NoError(t, err)
	require.Len(t, proxies, 2)
	assert.Equal(t, "203.0.113.9", proxies.ClientIP(req))
	assert.Equal(t, "203.0.113.9|/", proxies.IPPathRateKey(req))

	// el cliente antepone saltos falsos: vale el primero no confiable desde la derecha
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", proxies.ClientIP(req))

	// un RemoteAddr no confiable no puede elegir su IP
	req.RemoteAddr = "198.51.100.7:4000"
	assert.Equal(t, "198.51.100.7", proxies.ClientIP(req))

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestWithRateLimit_ForwardedForRotation(t *testing.T) {
	h := ChainFunc(ok, WithRateLimit(RateLimitConfig{
		Limiter: rate.NewMemoryLimiter(1, time.Minute),
	}))
	do := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, do("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.2"))
}
