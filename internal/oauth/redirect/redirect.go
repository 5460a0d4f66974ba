// Package redirect valida y selecciona el redirect URI de un client.
package redirect

import (
	"net/url"
	"strings"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
)

// Resolve devuelve el redirect a usar para client.
//
// Sin requested: sólo vale si el client tiene exactamente un redirect
// registrado. Con requested: tiene que matchear algún registrado (ver
// Matches) y se devuelve requested tal cual, con sus parámetros extra.
func Resolve(client *repository.Client, requested string) (string, error) {
	registered := client.RedirectURIs
	if len(registered) == 0 {
		return "", httperrors.ErrInvalidRequest.WithDetail("client has no registered redirect_uri")
	}

	if requested == "" {
		if len(registered) == 1 {
			return registered[0], nil
		}
		return "", httperrors.ErrInvalidRequest.WithDetail("redirect_uri is required when the client has several registered")
	}

	req, err := url.Parse(requested)
	if err != nil || req.Scheme == "" || req.Host == "" {
		return "", httperrors.ErrInvalidRequest.WithDetail("redirect_uri is not an absolute URI")
	}
	for _, candidate := range registered {
		reg, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if Matches(reg, req) {
			return requested, nil
		}
	}
	return "", httperrors.ErrInvalidRequest.WithDetail("redirect_uri does not match any registered redirect")
}

// Matches aplica el match parcial: scheme, host y path iguales, y cada
// parámetro de query del registrado presente con el mismo valor en el pedido.
// El pedido puede traer parámetros extra; el fragment se ignora.
func Matches(registered, requested *url.URL) bool {
	if !strings.EqualFold(registered.Scheme, requested.Scheme) ||
		!strings.EqualFold(registered.Host, requested.Host) ||
		registered.Path != requested.Path {
		return false
	}

	want := registered.Query()
	got := requested.Query()
	for key, values := range want {
		have := got[key]
		for _, v := range values {
			if !contains(have, v) {
				return false
			}
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
