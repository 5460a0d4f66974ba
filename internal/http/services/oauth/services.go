// Package oauth contiene las máquinas de estado de /authorize, /token y los
// endpoints auxiliares (callback, revoke, tokeninfo).
package oauth

import (
	"time"

	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// Defaults de Deps.
const (
	DefaultStateTTL             = 10 * time.Minute
	DefaultAuthenticatorTimeout = 10 * time.Second
)

// CallbackPath es la ruta del callback de authenticators.
const CallbackPath = "/authorize/callback"

// Deps contiene las dependencias para crear los services OAuth.
type Deps struct {
	DAL            store.DataAccessLayer
	Tokens         *tokens.Manager
	Authenticators *authenticators.Registry

	// BaseURL pública del servidor, para armar la URL de callback.
	BaseURL string
	// StateTTL es la vida de un AuthenticatorState.
	StateTTL time.Duration
	// AuthenticatorTimeout acota Delegate y Authenticate de los plugins.
	AuthenticatorTimeout time.Duration
}

// Services agrupa todos los services del dominio OAuth.
type Services struct {
	Authorize AuthorizeService
	Token     TokenService
	Revoke    RevokeService
	TokenInfo TokenInfoService
}

// NewServices crea el agregador de services OAuth.
func NewServices(d Deps) Services {
	if d.Tokens == nil {
		d.Tokens = tokens.NewManager()
	}
	if d.StateTTL <= 0 {
		d.StateTTL = DefaultStateTTL
	}
	if d.AuthenticatorTimeout <= 0 {
		d.AuthenticatorTimeout = DefaultAuthenticatorTimeout
	}
	resolver := clientauth.NewResolver(d.Tokens)

	return Services{
		Authorize: NewAuthorizeService(AuthorizeDeps{
			DAL:                  d.DAL,
			Tokens:               d.Tokens,
			Authenticators:       d.Authenticators,
			BaseURL:              d.BaseURL,
			StateTTL:             d.StateTTL,
			AuthenticatorTimeout: d.AuthenticatorTimeout,
		}),
		Token: NewTokenService(TokenDeps{
			DAL:      d.DAL,
			Tokens:   d.Tokens,
			Resolver: resolver,
		}),
		Revoke: NewRevokeService(RevokeDeps{
			DAL:      d.DAL,
			Tokens:   d.Tokens,
			Resolver: resolver,
		}),
		TokenInfo: NewTokenInfoService(TokenInfoDeps{
			DAL:      d.DAL,
			Tokens:   d.Tokens,
			Resolver: resolver,
		}),
	}
}
