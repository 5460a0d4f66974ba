package oauth

import (
	"errors"

	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
)

// RedirectError es un error que se informa en el redirect del client (query
// o fragment) en lugar de como respuesta directa: el redirect ya fue
// validado cuando se produjo.
type RedirectError struct {
	Redirect string
	Fragment bool
	State    string
	Err      *httperrors.AppError
}

func (e *RedirectError) Error() string { return "redirect: " + e.Err.Error() }
func (e *RedirectError) Unwrap() error { return e.Err }

func redirectErr(redirect string, fragment bool, state string, err error) *RedirectError {
	return &RedirectError{
		Redirect: redirect,
		Fragment: fragment,
		State:    state,
		Err:      httperrors.FromError(err),
	}
}

// AsRedirectError reporta si err tiene que ir por redirect.
func AsRedirectError(err error) (*RedirectError, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
