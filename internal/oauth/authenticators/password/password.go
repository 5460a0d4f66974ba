// Package password autentica contra identidades locales con login y
// contraseña (digest argon2id en UserIdentity.Password).
//
// Delegate redirige a la página de login configurada con el callback como
// parámetro; esa página postea login y password al callback. Este plugin no
// crea usuarios: la identidad tiene que existir (ver seed).
package password

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
)

const Type = "password"

const (
	KeyLoginURL = "login_url"
	// KeyCallbackParam es el nombre del parámetro que lleva el callback a la
	// página de login (default "callback").
	KeyCallbackParam = "callback_param"
)

type Authenticator struct{}

func New() *Authenticator { return &Authenticator{} }

func Factory(authenticators.Deps) (authenticators.Authenticator, error) { return New(), nil }

func (*Authenticator) Type() string { return Type }

func (*Authenticator) Delegate(_ context.Context, cfg *repository.Authenticator, callback *url.URL) (string, error) {
	raw, err := authenticators.Require(cfg, KeyLoginURL)
	if err != nil {
		return "", err
	}
	login, err := url.Parse(raw)
	if err != nil || !login.IsAbs() {
		return "", fmt.Errorf("%w: invalid %s", authenticators.ErrMisconfigured, KeyLoginURL)
	}
	q := login.Query()
	q.Set(authenticators.Setting(cfg, KeyCallbackParam, "callback"), callback.String())
	login.RawQuery = q.Encode()
	return login.String(), nil
}

func (*Authenticator) Authenticate(ctx context.Context, req authenticators.CallbackRequest) (*repository.UserIdentity, error) {
	login, ok, dup := helpers.Single(req.Params, "login")
	if !ok || dup {
		return nil, authenticators.ErrAccessDenied
	}
	secret, ok, dup := helpers.Single(req.Params, "password")
	if !ok || dup {
		return nil, authenticators.ErrAccessDenied
	}

	ident, err := req.Identities.Find(ctx, req.Client, Type, login)
	if repository.IsNotFound(err) {
		return nil, authenticators.ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	if ident.Password == "" || !password.Verify(secret, ident.Password) {
		return nil, authenticators.ErrAccessDenied
	}
	return ident, nil
}
