package password

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
	"github.com/dropDatabas3/kangaroo/internal/store/memory"
)

func TestDelegate(t *testing.T) {
	cb, _ := url.Parse("https://auth.example.com/authorize/callback?state=s1")
	cfg := &repository.Authenticator{Configuration: map[string]string{KeyLoginURL: "https://login.example.com/form?theme=dark"}}

	got, err := New().Delegate(context.Background(), cfg, cb)
	require.NoError(t, err)
	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "login.example.com", u.Host)
	require.Equal(t, "dark", u.Query().Get("theme"))
	require.Equal(t, cb.String(), u.Query().Get("callback"))

	_, err = New().Delegate(context.Background(), &repository.Authenticator{}, cb)
	require.ErrorIs(t, err, authenticators.ErrMisconfigured)

	cfg.Configuration[KeyLoginURL] = "/relative"
	_, err = New().Delegate(context.Background(), cfg, cb)
	require.ErrorIs(t, err, authenticators.ErrMisconfigured)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	dal := memory.New()
	digest, err := password.New(password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}, "alice-secret")
	require.NoError(t, err)

	client := &repository.Client{Name: "web", Type: repository.ClientTypeAuthorizationGrant}
	var alice *repository.UserIdentity
	require.NoError(t, dal.RunInTx(ctx, func(r repository.Repositories) error {
		app := &repository.Application{Name: "demo"}
		require.NoError(t, r.Applications().Save(ctx, app))
		client.ApplicationID = app.ID
		require.NoError(t, r.Clients().Save(ctx, client))
		user := &repository.User{ApplicationID: app.ID}
		require.NoError(t, r.Users().Save(ctx, user))
		alice = &repository.UserIdentity{UserID: user.ID, Type: Type, RemoteID: "alice", Password: digest}
		require.NoError(t, r.Identities().Save(ctx, alice))
		nopw := &repository.UserIdentity{UserID: user.ID, Type: "test", RemoteID: "bob"}
		return r.Identities().Save(ctx, nopw)
	}))

	run := func(params url.Values) (*repository.UserIdentity, error) {
		var ident *repository.UserIdentity
		var authErr error
		require.NoError(t, dal.RunInTx(ctx, func(r repository.Repositories) error {
			ident, authErr = New().Authenticate(ctx, authenticators.CallbackRequest{
				Client:     client,
				Params:     params,
				Identities: authenticators.NewIdentities(r),
			})
			return nil
		}))
		return ident, authErr
	}

	ident, err := run(url.Values{"login": {"alice"}, "password": {"alice-secret"}})
	require.NoError(t, err)
	require.Equal(t, alice.ID, ident.ID)

	denied := map[string]url.Values{
		"wrong password":  {"login": {"alice"}, "password": {"nope"}},
		"unknown login":   {"login": {"carol"}, "password": {"alice-secret"}},
		"other type":      {"login": {"bob"}, "password": {""}},
		"missing pw":      {"login": {"alice"}},
		"duplicate login": {"login": {"alice", "alice"}, "password": {"alice-secret"}},
	}
	for name, params := range denied {
		t.Run(name, func(t *testing.T) {
			_, err := run(params)
			require.ErrorIs(t, err, authenticators.ErrAccessDenied)
		})
	}
}
