package oauth_test

import (
	"context"
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/bootstrap"
	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	testauth "github.com/dropDatabas3/kangaroo/internal/oauth/authenticators/test"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
	"github.com/dropDatabas3/kangaroo/internal/store/memory"
)

const baseURL = "https://auth.example.com"

const fixtureYAML = `
applications:
  - name: demo
    scopes: [debug, admin]
    default_role: test
    roles:
      - name: test
        scopes: [debug]
    clients:
      - name: web
        type: AuthorizationGrant
        redirect_uris: ["http://valid.example.com/redirect"]
        authenticators:
          - type: test
      - name: private
        type: AuthorizationGrant
        secret: web-secret-value
        redirect_uris: ["http://valid.example.com/redirect"]
        authenticators:
          - type: test
      - name: spa
        type: Implicit
        redirect_uris: ["http://valid.example.com/implicit"]
        authenticators:
          - type: test
      - name: multi
        type: AuthorizationGrant
        redirect_uris: ["http://valid.example.com/a", "http://valid.example.com/b?foo=bar"]
        authenticators:
          - type: test
          - type: mock
      - name: bare
        type: AuthorizationGrant
        redirect_uris: ["http://valid.example.com/redirect"]
      - name: ghost
        type: AuthorizationGrant
        redirect_uris: ["http://valid.example.com/redirect"]
        authenticators:
          - type: ghost
      - name: denied
        type: AuthorizationGrant
        redirect_uris: ["http://valid.example.com/redirect"]
        authenticators:
          - type: test
            configuration:
              deny: "true"
      - name: svc
        type: ClientCredentials
        secret: svc-secret-value
`

type env struct {
	dal      *memory.Store
	svcs     svc.Services
	registry *authenticators.Registry
	seed     *bootstrap.Result
	now      time.Time
}

// newEnv arma services sobre un store en memoria con el seed de prueba. El
// reloj de tokens es e.now, que los tests pueden adelantar.
func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, memory.New(), nil)
}

// newEnvWith es newEnv sobre dal, con tweak aplicado a las Deps antes de
// construir los services.
func newEnvWith(t *testing.T, dal *memory.Store, tweak func(*svc.Deps)) *env {
	t.Helper()
	seed, err := bootstrap.Parse([]byte(fixtureYAML))
	require.NoError(t, err)

	e := &env{dal: dal, now: time.Now().UTC()}
	e.seed, err = bootstrap.Apply(context.Background(), e.dal, seed, bootstrap.Options{
		Hash: password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16},
	})
	require.NoError(t, err)

	e.registry = authenticators.NewRegistry(authenticators.Deps{})
	e.registry.RegisterFactory(testauth.Type, testauth.Factory)

	deps := svc.Deps{
		DAL:            e.dal,
		Tokens:         tokens.NewManager(tokens.WithClock(func() time.Time { return e.now })),
		Authenticators: e.registry,
		BaseURL:        baseURL + "/",
	}
	if tweak != nil {
		tweak(&deps)
	}
	e.svcs = svc.NewServices(deps)
	return e
}

func (e *env) client(name string) *repository.Client { return e.seed.Client("demo", name) }

func (e *env) clientID(name string) string { return e.client(name).ID.String() }

func basic(id, secret string) string {
	raw := url.QueryEscape(id) + ":" + url.QueryEscape(secret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// authorize corre /authorize y sigue el redirect al callback (el
// authenticator test redirige directo). Devuelve la URL final.
func (e *env) authorize(t *testing.T, params url.Values) *url.URL {
	t.Helper()
	ctx := context.Background()
	res, err := e.svcs.Authorize.Authorize(ctx, svc.AuthorizeRequest{Params: params})
	require.NoError(t, err)

	cb, err := url.Parse(res.Location)
	require.NoError(t, err)
	require.Equal(t, baseURL+svc.CallbackPath, cb.Scheme+"://"+cb.Host+cb.Path)

	final, err := e.svcs.Authorize.Callback(ctx, svc.CallbackRequest{Params: cb.Query()})
	require.NoError(t, err)
	u, err := url.Parse(final.Location)
	require.NoError(t, err)
	return u
}

// code obtiene un código para el client web.
func (e *env) code(t *testing.T, client string) string {
	t.Helper()
	u := e.authorize(t, url.Values{
		"response_type": {"code"},
		"client_id":     {e.clientID(client)},
		"scope":         {"debug"},
	})
	code := u.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func bodyAuth(form url.Values) clientauth.Request {
	return clientauth.Request{Body: form, Query: url.Values{}}
}
