// Package authenticators define el contrato de los plugins que verifican la
// identidad del usuario final durante /authorize.
//
// El flujo es siempre en dos pasos:
//
//   - Delegate: con la configuración del Authenticator del client y la URL de
//     callback (que ya lleva el state), devuelve adónde redirigir al usuario.
//   - Authenticate: en el callback, con los parámetros que trajo el usuario,
//     devuelve la UserIdentity verificada (User y Role cargados).
//
// Los plugins concretos viven en subpaquetes y se registran en un Registry.
package authenticators

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

var (
	// ErrAccessDenied: el usuario o el proveedor rechazó la autenticación.
	// Se traduce a access_denied; cualquier otro error es server_error.
	ErrAccessDenied = errors.New("authenticators: access denied")
	// ErrUnknownType: ningún plugin registrado para ese tipo.
	ErrUnknownType = errors.New("authenticators: unknown type")
	// ErrMisconfigured: falta configuración obligatoria del plugin.
	ErrMisconfigured = errors.New("authenticators: misconfigured")
)

//go:generate mockgen -destination=mocks/mock_authenticator.go -package=mocks -source=authenticator.go Authenticator

// Authenticator es un plugin de verificación de identidad. Las
// implementaciones no guardan estado por request: todo lo que necesitan
// viene en la configuración del Authenticator y en el callback.
type Authenticator interface {
	Type() string
	Delegate(ctx context.Context, cfg *repository.Authenticator, callback *url.URL) (string, error)
	Authenticate(ctx context.Context, req CallbackRequest) (*repository.UserIdentity, error)
}

// CallbackRequest es lo que recibe Authenticate.
type CallbackRequest struct {
	Client *repository.Client
	Config *repository.Authenticator
	// Callback es la misma URL que se pasó a Delegate.
	Callback *url.URL
	// Params son los parámetros del callback (query + form).
	Params url.Values
	// Identities abre sus propias transacciones; Authenticate no corre
	// dentro de ninguna.
	Identities *Identities
}

// SplitCallback separa la URL de callback en la URL sin query (la que se
// registra en proveedores externos como redirect_uri) y el state.
func SplitCallback(callback *url.URL) (bare, state string) {
	u := *callback
	state = u.Query().Get("state")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), state
}

// Setting lee una clave de configuración con default.
func Setting(cfg *repository.Authenticator, key, def string) string {
	if cfg != nil {
		if v, ok := cfg.Configuration[key]; ok && v != "" {
			return v
		}
	}
	return def
}

// Require lee una clave obligatoria.
func Require(cfg *repository.Authenticator, key string) (string, error) {
	v := Setting(cfg, key, "")
	if v == "" {
		return "", fmt.Errorf("%w: %q is required", ErrMisconfigured, key)
	}
	return v, nil
}
