package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "kangaroo.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "http://localhost:8080", c.Server.BaseURL)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "storage", c.OAuth.StateStore)
	assert.Equal(t, 10*time.Minute, c.OAuth.StateTTL)
	assert.Equal(t, []string{"password"}, c.OAuth.Authenticators)
	assert.Equal(t, "console", c.Log.Format)
	assert.False(t, c.Rate.Enabled)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	p := writeYAML(t, `
app:
  env: staging
server:
  addr: ":9000"
  base_url: https://auth.example.com
storage:
  driver: postgres
  dsn: postgres://localhost/kangaroo
oauth:
  state_ttl: 5m
  authenticators: [password, github]
rate:
  enabled: true
  window: 30s
  max_requests: 5
seed:
  path: seed.yaml
`)
	t.Setenv("KANGAROO_RATE_MAX_REQUESTS", "7")
	t.Setenv("KANGAROO_OAUTH_AUTHENTICATORS", "password, google")
	t.Setenv("KANGAROO_LOG_LEVEL", "DEBUG")
	t.Setenv("KANGAROO_RATE_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "https://auth.example.com", c.Server.BaseURL)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, 5*time.Minute, c.OAuth.StateTTL)
	assert.Equal(t, 30*time.Second, c.Rate.Window)
	assert.Equal(t, 7, c.Rate.MaxRequests)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, c.Rate.TrustedProxies)
	assert.Equal(t, []string{"password", "google"}, c.OAuth.Authenticators)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "seed.yaml"), c.Seed.Path)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"postgres without dsn":  "storage: {driver: postgres}",
		"unknown driver":        "storage: {driver: mongo}",
		"redis without addr":    "cache: {kind: redis}",
		"redis state no redis":  "oauth: {state_store: redis}",
		"relative base url":     "server: {base_url: auth.example.com}",
		"test authenticator":    "app: {env: prod}\noauth: {authenticators: [test]}",
		"bad yaml":              "server: [",
		"min above max":         "storage: {max_conns: 2, min_conns: 5}",
		"bad trusted proxy":     "rate: {trusted_proxies: [10.0.0.0/99]}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}
