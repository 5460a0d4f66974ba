package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":            "/",
		"/":           "/",
		"/token":      "/token",
		"/authorize/": "/authorize",
		"/clients/3b241101-e2bb-4255-8caf-4136c566a962": "/clients/:param",
		"/x/12345?a=b": "/x/:param",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestWithMetrics(t *testing.T) {
	h, err := RegisterMetrics(MetricsConfig{})
	require.NoError(t, err)
	require.NotNil(t, h)

	wrapped := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/brew", "418"))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/brew", "418"))
	assert.Equal(t, before+1, after)

	RecordTokenIssued("authorization_code", "Bearer")
	assert.GreaterOrEqual(t, testutil.ToFloat64(tokensIssuedTotal.WithLabelValues("authorization_code", "Bearer")), 1.0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "oauth_tokens_issued_total")
}
