// Package test es un authenticator de desarrollo: no pide credenciales,
// redirige directo al callback y autentica siempre al mismo usuario remoto.
// No habilitarlo en producción.
package test

import (
	"context"
	"net/url"
	"strings"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
)

const Type = "test"

// Claves de configuración.
const (
	KeyRemoteID = "remote_id"
	KeyDeny     = "deny"
	// Prefijo de claims fijos: "claim.email" -> claims["email"].
	claimPrefix = "claim."
)

const DefaultRemoteID = "dev_user"

type Authenticator struct{}

func New() *Authenticator { return &Authenticator{} }

func Factory(authenticators.Deps) (authenticators.Authenticator, error) { return New(), nil }

func (*Authenticator) Type() string { return Type }

func (*Authenticator) Delegate(_ context.Context, _ *repository.Authenticator, callback *url.URL) (string, error) {
	return callback.String(), nil
}

func (*Authenticator) Authenticate(ctx context.Context, req authenticators.CallbackRequest) (*repository.UserIdentity, error) {
	if authenticators.Setting(req.Config, KeyDeny, "") == "true" {
		return nil, authenticators.ErrAccessDenied
	}
	remoteID := authenticators.Setting(req.Config, KeyRemoteID, DefaultRemoteID)

	claims := map[string]string{}
	if req.Config != nil {
		for k, v := range req.Config.Configuration {
			if name, ok := strings.CutPrefix(k, claimPrefix); ok && name != "" {
				claims[name] = v
			}
		}
	}
	return req.Identities.FindOrCreate(ctx, req.Client, Type, remoteID, claims)
}
