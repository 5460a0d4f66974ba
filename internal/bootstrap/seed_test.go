package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
	"github.com/dropDatabas3/kangaroo/internal/store/memory"
)

var fast = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}

const clientID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

const sample = `
applications:
  - id: 3b241101-e2bb-4255-8caf-4136c566a962
    name: demo
    scopes: [debug, profile]
    default_role: test
    roles:
      - name: test
        scopes: [debug]
      - name: admin
        scopes: [debug, profile]
    clients:
      - id: ` + clientID + `
        name: web
        type: AuthorizationGrant
        secret: correct-horse-battery
        redirect_uris: ["http://valid.example.com/redirect"]
        configuration:
          access_token_expires_in: "120"
        authenticators:
          - type: test
          - type: password
            configuration:
              login_url: https://login.example.com/
      - name: spa
        type: Implicit
        redirect_uris: ["http://valid.example.com/spa"]
    users:
      - role: admin
        identities:
          - type: password
            remote_id: alice
            password: alice-password-1
            claims:
              email: alice@example.com
`

func TestApply(t *testing.T) {
	ctx := context.Background()
	seed, err := Parse([]byte(sample))
	require.NoError(t, err)

	dal := memory.New()
	res, err := Apply(ctx, dal, seed, Options{Hash: fast, Policy: &password.DefaultPolicy})
	require.NoError(t, err)

	web := res.Client("demo", "web")
	require.NotNil(t, web)
	require.Equal(t, clientID, web.ID.String())
	require.True(t, password.Verify("correct-horse-battery", web.Secret))
	require.False(t, res.Client("demo", "spa").IsPrivate())

	require.NoError(t, dal.RunInTx(ctx, func(r repository.Repositories) error {
		c, err := r.Clients().Get(ctx, web.ID)
		require.NoError(t, err)
		require.Len(t, c.Authenticators, 2)
		auth, ok := c.Authenticator("password")
		require.True(t, ok)
		require.Equal(t, "https://login.example.com/", auth.Configuration["login_url"])
		require.Equal(t, "120", c.Configuration["access_token_expires_in"])

		require.NotNil(t, c.Application.DefaultRoleID)
		role, err := r.Roles().Get(ctx, *c.Application.DefaultRoleID)
		require.NoError(t, err)
		require.Equal(t, "test", role.Name)
		require.True(t, role.Permits("debug"))
		require.False(t, role.Permits("profile"))

		ident, err := r.Identities().FindByRemoteID(ctx, c.ApplicationID, "password", "alice")
		require.NoError(t, err)
		require.True(t, password.Verify("alice-password-1", ident.Password))
		require.Equal(t, "admin", ident.User.Role.Name)
		require.Equal(t, "alice@example.com", ident.Claims["email"])
		return nil
	}))
}

func TestApply_IdentitiesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	seed, err := Parse([]byte(sample))
	require.NoError(t, err)
	dal := memory.New()

	first, err := Apply(ctx, dal, seed, Options{Hash: fast})
	require.NoError(t, err)
	second, err := Apply(ctx, dal, seed, Options{Hash: fast})
	require.NoError(t, err)

	a := first.Identities["demo/password/alice"]
	b := second.Identities["demo/password/alice"]
	require.Equal(t, a.ID, b.ID)
	require.Equal(t, a.UserID, b.UserID)
	// client con id fijo se actualiza en lugar de duplicarse
	require.Equal(t, first.Client("demo", "web").ID, second.Client("demo", "web").ID)
}

func TestValidate(t *testing.T) {
	app := func(mut func(*ApplicationSeed)) *Seed {
		a := ApplicationSeed{
			Name:   "demo",
			Scopes: []string{"debug"},
			Roles:  []RoleSeed{{Name: "test", Scopes: []string{"debug"}}},
			Clients: []ClientSeed{{
				Name: "web", Type: "AuthorizationGrant", Secret: "long-enough-secret",
				RedirectURIs:   []string{"http://valid.example.com/redirect"},
				Authenticators: []AuthenticatorSeed{{Type: "test"}},
			}},
		}
		mut(&a)
		return &Seed{Applications: []ApplicationSeed{a}}
	}
	policy := &password.DefaultPolicy

	tests := map[string]*Seed{
		"no name":              app(func(a *ApplicationSeed) { a.Name = "" }),
		"bad scope":            app(func(a *ApplicationSeed) { a.Scopes = []string{"Bad Scope"} }),
		"role unknown scope":   app(func(a *ApplicationSeed) { a.Roles[0].Scopes = []string{"nope"} }),
		"unknown default role": app(func(a *ApplicationSeed) { a.DefaultRole = "ghost" }),
		"bad client type":      app(func(a *ApplicationSeed) { a.Clients[0].Type = "Nope" }),
		"bad client id":        app(func(a *ApplicationSeed) { a.Clients[0].ID = "xyz" }),
		"fragment redirect":    app(func(a *ApplicationSeed) { a.Clients[0].RedirectURIs = []string{"http://x.example.com/#f"} }),
		"dup authenticator": app(func(a *ApplicationSeed) {
			a.Clients[0].Authenticators = append(a.Clients[0].Authenticators, AuthenticatorSeed{Type: "test"})
		}),
		"disabled authenticator": app(func(a *ApplicationSeed) { a.Clients[0].Authenticators[0].Type = "github" }),
		"dup client":             app(func(a *ApplicationSeed) { a.Clients = append(a.Clients, a.Clients[0]) }),
		"user unknown role":      app(func(a *ApplicationSeed) { a.Users = []UserSeed{{Role: "ghost"}} }),
		"identity no remote": app(func(a *ApplicationSeed) {
			a.Users = []UserSeed{{Identities: []IdentitySeed{{Type: "password"}}}}
		}),
	}
	for name, seed := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, seed.Validate(Options{Policy: policy, Authenticators: []string{"test", "password"}}), ErrInvalidSeed)
		})
	}

	weak := app(func(a *ApplicationSeed) { a.Clients[0].Secret = "short" })
	require.ErrorIs(t, weak.Validate(Options{Policy: policy}), password.ErrWeak)
	require.NoError(t, weak.Validate(Options{}))

	require.NoError(t, app(func(*ApplicationSeed) {}).Validate(Options{Policy: policy}))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("applications: {not: a list}"))
	require.ErrorIs(t, err, ErrInvalidSeed)
}
