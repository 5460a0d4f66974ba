package oauth_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
)

func codeForm(code string) url.Values {
	return url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"http://valid.example.com/redirect"},
	}
}

func withClient(form url.Values, id string) url.Values {
	form.Set("client_id", id)
	return form
}

func TestExchange_AuthorizationCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.code(t, "web")

	form := withClient(codeForm(code), e.clientID("web"))
	form.Set("state", "echo")
	resp, err := e.svcs.Token.Exchange(ctx, svc.TokenRequest{Auth: bodyAuth(form), Form: form})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(600), resp.ExpiresIn)
	assert.Equal(t, "debug", resp.Scope)
	assert.Equal(t, "echo", resp.State)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// el código no se puede canjear dos veces
	_, err = e.svcs.Token.Exchange(ctx, svc.TokenRequest{Auth: bodyAuth(form), Form: form})
	assert.ErrorIs(t, err, httperrors.ErrInvalidGrant)

	require.NoError(t, e.dal.RunInTx(ctx, func(r repository.Repositories) error {
		refresh, err := r.Tokens().Get(ctx, uuid.MustParse(resp.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, repository.TokenTypeRefresh, refresh.Type)
		require.NotNil(t, refresh.AuthTokenID)
		assert.Equal(t, resp.AccessToken, refresh.AuthTokenID.String())
		return nil
	}))
}

func TestExchange_PrivateClientWithBasic(t *testing.T) {
	e := newEnv(t)
	id := e.clientID("private")
	u := e.authorize(t, url.Values{"response_type": {"code"}, "client_id": {id}})

	form := codeForm(u.Query().Get("code"))
	resp, err := e.svcs.Token.Exchange(context.Background(), svc.TokenRequest{
		Auth: clientauth.Request{Authorization: []string{basic(id, "web-secret-value")}},
		Form: form,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestExchange_AuthorizationCodeErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	web := e.clientID("web")

	cases := []struct {
		name string
		form func(code string) url.Values
		want *httperrors.AppError
	}{
		{"missing code", func(string) url.Values {
			f := withClient(codeForm(""), web)
			f.Del("code")
			return f
		}, httperrors.ErrInvalidGrant},
		{"malformed code", func(string) url.Values { return withClient(codeForm("nope"), web) }, httperrors.ErrInvalidGrant},
		{"unknown code", func(string) url.Values { return withClient(codeForm(uuid.NewString()), web) }, httperrors.ErrInvalidGrant},
		{"missing redirect", func(c string) url.Values {
			f := withClient(codeForm(c), web)
			f.Del("redirect_uri")
			return f
		}, httperrors.ErrInvalidRequest},
		{"different redirect", func(c string) url.Values {
			f := withClient(codeForm(c), web)
			f.Set("redirect_uri", "http://valid.example.com/redirect?foo=bar")
			return f
		}, httperrors.ErrInvalidGrant},
		{"other client", func(c string) url.Values { return withClient(codeForm(c), e.clientID("multi")) }, httperrors.ErrInvalidGrant},
		{"implicit client", func(c string) url.Values { return withClient(codeForm(c), e.clientID("spa")) }, httperrors.ErrUnauthorizedClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := tc.form(e.code(t, "web"))
			_, err := e.svcs.Token.Exchange(ctx, svc.TokenRequest{Auth: bodyAuth(form), Form: form})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExchange_ExpiredCode(t *testing.T) {
	e := newEnv(t)
	code := e.code(t, "web")
	e.now = e.now.Add(601 * time.Second)

	form := withClient(codeForm(code), e.clientID("web"))
	_, err := e.svcs.Token.Exchange(context.Background(), svc.TokenRequest{Auth: bodyAuth(form), Form: form})
	assert.ErrorIs(t, err, httperrors.ErrInvalidGrant)
}

func TestExchange_ClientCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.clientID("svc")
	auth := clientauth.Request{Authorization: []string{basic(id, "svc-secret-value")}}

	resp, err := e.svcs.Token.Exchange(ctx, svc.TokenRequest{
		Auth: auth,
		Form: url.Values{"grant_type": {"client_credentials"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Empty(t, resp.RefreshToken)
	assert.Empty(t, resp.Scope)

	// sin rol no hay scopes que conceder
	_, err = e.svcs.Token.Exchange(ctx, svc.TokenRequest{
		Auth: auth,
		Form: url.Values{"grant_type": {"client_credentials"}, "scope": {"debug"}},
	})
	assert.ErrorIs(t, err, httperrors.ErrInvalidScope)

	_, err = e.svcs.Token.Exchange(ctx, svc.TokenRequest{
		Auth: clientauth.Request{Authorization: []string{basic(id, "wrong")}},
		Form: url.Values{"grant_type": {"client_credentials"}},
	})
	assert.ErrorIs(t, err, httperrors.ErrInvalidClient)

	form := withClient(url.Values{"grant_type": {"client_credentials"}}, e.clientID("web"))
	_, err = e.svcs.Token.Exchange(ctx, svc.TokenRequest{Auth: bodyAuth(form), Form: form})
	assert.ErrorIs(t, err, httperrors.ErrUnauthorizedClient)
}

func TestExchange_RequestErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	web := e.clientID("web")

	cases := []struct {
		name string
		auth clientauth.Request
		form url.Values
		want *httperrors.AppError
	}{
		{"missing grant_type", clientauth.Request{}, url.Values{"client_id": {web}}, httperrors.ErrInvalidRequest},
		{"duplicate grant_type", clientauth.Request{}, url.Values{"grant_type": {"a", "b"}}, httperrors.ErrInvalidRequest},
		{"duplicate state", clientauth.Request{}, url.Values{"grant_type": {"password"}, "state": {"a", "b"}}, httperrors.ErrInvalidRequest},
		{"no credentials", clientauth.Request{}, url.Values{"grant_type": {"password"}}, httperrors.ErrInvalidClient},
		{"two channels", clientauth.Request{
			Authorization: []string{basic(web, "")},
			Body:          url.Values{"client_id": {web}},
		}, url.Values{"grant_type": {"password"}}, httperrors.ErrInvalidClient},
		{"password", bodyAuth(url.Values{"client_id": {web}}), url.Values{"grant_type": {"password"}, "username": {"u"}, "password": {"p"}}, httperrors.ErrInvalidGrant},
		{"refresh_token", bodyAuth(url.Values{"client_id": {web}}), url.Values{"grant_type": {"refresh_token"}, "refresh_token": {uuid.NewString()}}, httperrors.ErrInvalidGrant},
		{"unknown grant", bodyAuth(url.Values{"client_id": {web}}), url.Values{"grant_type": {"device_code"}}, httperrors.ErrInvalidGrant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svcs.Token.Exchange(ctx, svc.TokenRequest{Auth: tc.auth, Form: tc.form})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func exchange(t *testing.T, e *env) (access, refresh string) {
	t.Helper()
	form := withClient(codeForm(e.code(t, "web")), e.clientID("web"))
	resp, err := e.svcs.Token.Exchange(context.Background(), svc.TokenRequest{Auth: bodyAuth(form), Form: form})
	require.NoError(t, err)
	return resp.AccessToken, resp.RefreshToken
}

func TestRevoke_Cascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	access, refresh := exchange(t, e)

	form := url.Values{"client_id": {e.clientID("web")}, "token": {access}}
	require.NoError(t, e.svcs.Revoke.Revoke(ctx, svc.RevokeRequest{Auth: bodyAuth(form), Form: form}))

	require.NoError(t, e.dal.RunInTx(ctx, func(r repository.Repositories) error {
		_, err := r.Tokens().Get(ctx, uuid.MustParse(access))
		assert.True(t, repository.IsNotFound(err))
		_, err = r.Tokens().Get(ctx, uuid.MustParse(refresh))
		assert.True(t, repository.IsNotFound(err))
		return nil
	}))

	// segunda vez: idempotente
	require.NoError(t, e.svcs.Revoke.Revoke(ctx, svc.RevokeRequest{Auth: bodyAuth(form), Form: form}))
}

func TestRevoke_ForeignOrMalformedTokenIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	access, _ := exchange(t, e)

	for _, token := range []string{access, "not-a-token"} {
		form := url.Values{"client_id": {e.clientID("multi")}, "token": {token}}
		require.NoError(t, e.svcs.Revoke.Revoke(ctx, svc.RevokeRequest{Auth: bodyAuth(form), Form: form}))
	}

	info, err := e.svcs.TokenInfo.Info(ctx, clientauth.Request{Authorization: []string{"Bearer " + access}})
	require.NoError(t, err)
	assert.Equal(t, e.clientID("web"), info.ClientID)
}

func TestRevoke_RequestErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	web := e.clientID("web")

	err := e.svcs.Revoke.Revoke(ctx, svc.RevokeRequest{Auth: bodyAuth(url.Values{"client_id": {web}}), Form: url.Values{}})
	assert.ErrorIs(t, err, httperrors.ErrInvalidRequest)

	err = e.svcs.Revoke.Revoke(ctx, svc.RevokeRequest{Form: url.Values{"token": {uuid.NewString()}}})
	assert.ErrorIs(t, err, httperrors.ErrInvalidClient)
}

func TestTokenInfo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	access, refresh := exchange(t, e)

	info, err := e.svcs.TokenInfo.Info(ctx, clientauth.Request{Authorization: []string{"Bearer " + access}})
	require.NoError(t, err)
	assert.Equal(t, e.clientID("web"), info.ClientID)
	assert.Equal(t, "Bearer", info.TokenType)
	assert.Equal(t, "debug", info.Scope)
	assert.Equal(t, int64(600), info.ExpiresIn)
	assert.NotEmpty(t, info.UserID)

	_, err = e.svcs.TokenInfo.Info(ctx, clientauth.Request{Authorization: []string{"Bearer " + refresh}})
	assert.ErrorIs(t, err, httperrors.ErrInvalidClient)

	_, err = e.svcs.TokenInfo.Info(ctx, clientauth.Request{Body: url.Values{"client_id": {e.clientID("web")}}})
	assert.ErrorIs(t, err, httperrors.ErrInvalidClient)

	e.now = e.now.Add(601 * time.Second)
	_, err = e.svcs.TokenInfo.Info(ctx, clientauth.Request{Authorization: []string{"Bearer " + access}})
	assert.ErrorIs(t, err, httperrors.ErrInvalidClient)
}
