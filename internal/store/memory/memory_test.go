package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

type fixture struct {
	app    *repository.Application
	role   *repository.Role
	client *repository.Client
	ident  *repository.UserIdentity
}

func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	var f fixture
	err := s.RunInTx(context.Background(), func(r repository.Repositories) error {
		ctx := context.Background()
		f.app = &repository.Application{Name: "test", Scopes: []repository.ApplicationScope{{Name: "debug"}, {Name: "admin"}}}
		if err := r.Applications().Save(ctx, f.app); err != nil {
			return err
		}
		debug, _ := f.app.Scope("debug")
		f.role = &repository.Role{ApplicationID: f.app.ID, Name: "test", Scopes: []repository.ApplicationScope{debug}}
		if err := r.Roles().Save(ctx, f.role); err != nil {
			return err
		}
		f.client = &repository.Client{
			ApplicationID:  f.app.ID,
			Name:           "web",
			Type:           repository.ClientTypeAuthorizationGrant,
			RedirectURIs:   []string{"http://valid.example.com/redirect"},
			Authenticators: []repository.Authenticator{{Type: "test"}},
		}
		if err := r.Clients().Save(ctx, f.client); err != nil {
			return err
		}
		user := &repository.User{ApplicationID: f.app.ID, RoleID: &f.role.ID}
		if err := r.Users().Save(ctx, user); err != nil {
			return err
		}
		f.ident = &repository.UserIdentity{UserID: user.ID, Type: "test", RemoteID: "dev_user", Claims: map[string]string{"name": "Dev"}}
		return r.Identities().Save(ctx, f.ident)
	})
	require.NoError(t, err)
	return f
}

func TestStore_RegisteredAsAdapter(t *testing.T) {
	dal, err := store.Open(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	require.Equal(t, "memory", dal.Name())
	require.NotNil(t, dal.States())
}

func TestStore_LoadComposesAggregates(t *testing.T) {
	s := New()
	f := seed(t, s)

	err := s.RunInTx(context.Background(), func(r repository.Repositories) error {
		c, err := r.Clients().Get(context.Background(), f.client.ID)
		require.NoError(t, err)
		require.NotNil(t, c.Application)
		require.Len(t, c.Application.Scopes, 2)
		require.Equal(t, "admin", c.Application.Scopes[0].Name)
		require.Len(t, c.Authenticators, 1)
		require.Equal(t, c.ID, c.Authenticators[0].ClientID)

		ident, err := r.Identities().FindByRemoteID(context.Background(), f.app.ID, "test", "dev_user")
		require.NoError(t, err)
		require.Equal(t, f.ident.ID, ident.ID)
		require.NotNil(t, ident.User.Role)
		require.True(t, ident.User.Role.Permits("debug"))
		require.False(t, ident.User.Role.Permits("admin"))

		_, err = r.Identities().FindByRemoteID(context.Background(), uuid.New(), "test", "dev_user")
		require.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_RollbackOnError(t *testing.T) {
	s := New()
	f := seed(t, s)
	boom := errors.New("boom")

	err := s.RunInTx(context.Background(), func(r repository.Repositories) error {
		tok := &repository.OAuthToken{Type: repository.TokenTypeBearer, ClientID: f.client.ID, ExpiresIn: 600}
		require.NoError(t, r.Tokens().Save(context.Background(), tok))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.RunInTx(context.Background(), func(r repository.Repositories) error {
		require.Empty(t, s.data.tokens)
		return nil
	}))
}

func TestStore_TokenDeleteCascadesToRefresh(t *testing.T) {
	s := New()
	f := seed(t, s)
	ctx := context.Background()

	var bearer, refresh *repository.OAuthToken
	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		bearer = &repository.OAuthToken{Type: repository.TokenTypeBearer, ClientID: f.client.ID, IdentityID: &f.ident.ID, ExpiresIn: 600, Scopes: f.role.Scopes}
		if err := r.Tokens().Save(ctx, bearer); err != nil {
			return err
		}
		refresh = &repository.OAuthToken{Type: repository.TokenTypeRefresh, ClientID: f.client.ID, IdentityID: &f.ident.ID, AuthTokenID: &bearer.ID, ExpiresIn: 3600}
		return r.Tokens().Save(ctx, refresh)
	}))

	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		got, err := r.Tokens().Get(ctx, bearer.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"debug"}, got.ScopeNames())
		require.Equal(t, f.ident.ID, got.Identity.ID)
		return r.Tokens().Delete(ctx, bearer.ID)
	}))

	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		_, err := r.Tokens().Get(ctx, refresh.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
		require.ErrorIs(t, r.Tokens().Delete(ctx, bearer.ID), repository.ErrNotFound)
		return nil
	}))
}

func TestStore_ClientDeleteCascadesToTokens(t *testing.T) {
	s := New()
	f := seed(t, s)
	ctx := context.Background()

	tok := &repository.OAuthToken{Type: repository.TokenTypeBearer, ClientID: f.client.ID, ExpiresIn: 600}
	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		return r.Tokens().Save(ctx, tok)
	}))
	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		return r.Clients().Delete(ctx, f.client.ID)
	}))
	require.NoError(t, s.RunInTx(ctx, func(r repository.Repositories) error {
		_, err := r.Tokens().Get(ctx, tok.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	}))
}

func TestStore_ScopeNamesAreUniquePerApplication(t *testing.T) {
	s := New()
	f := seed(t, s)
	err := s.RunInTx(context.Background(), func(r repository.Repositories) error {
		app, err := r.Applications().Get(context.Background(), f.app.ID)
		require.NoError(t, err)
		app.Scopes = append(app.Scopes, repository.ApplicationScope{Name: "debug"})
		return r.Applications().Save(context.Background(), app)
	})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestStore_CanceledContextRollsBack(t *testing.T) {
	s := New()
	f := seed(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.RunInTx(ctx, func(r repository.Repositories) error {
		cancel()
		return r.Tokens().Save(ctx, &repository.OAuthToken{Type: repository.TokenTypeBearer, ClientID: f.client.ID, ExpiresIn: 1})
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, s.data.tokens)
}
