// Package oauth contiene los controllers HTTP de los endpoints OAuth2:
// parsean el request, llaman al service y codifican la respuesta.
package oauth

import (
	"errors"
	"net/http"

	metrics "github.com/dropDatabas3/kangaroo/internal/http"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
)

// maxFormBody acota los bodies form-encoded (64 KiB).
const maxFormBody = 64 << 10

// Controllers agrupa todos los controllers del dominio OAuth.
type Controllers struct {
	Authorize *AuthorizeController
	Token     *TokenController
	Revoke    *RevokeController
	TokenInfo *TokenInfoController
}

// NewControllers crea el agregador a partir de los services.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Authorize: NewAuthorizeController(s.Authorize),
		Token:     NewTokenController(s.Token),
		Revoke:    NewRevokeController(s.Revoke),
		TokenInfo: NewTokenInfoController(s.TokenInfo),
	}
}

// parseForm limita el body y parsea query + form. Un body demasiado grande
// es 413, cualquier otro problema invalid_request.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidRequest.WithDetail("invalid form data")
	}
	return nil
}

// writeError escribe err como redirect (si el service lo pidió) o como JSON,
// y lo cuenta en oauth_errors_total.
func writeError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op(endpoint))

	if re, ok := svc.AsRedirectError(err); ok {
		metrics.RecordOAuthError(endpoint, re.Err.Code)
		if re.Err.HTTPStatus >= http.StatusInternalServerError {
			log.Error("oauth error via redirect", logger.Err(re.Err))
		}
		httperrors.RedirectError(w, r, re.Redirect, re.Fragment, re.Err, re.State)
		return
	}

	appErr := httperrors.FromError(err)
	metrics.RecordOAuthError(endpoint, appErr.Code)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("oauth error", logger.Err(err))
	} else {
		log.Debug("oauth error", logger.String("error", appErr.Code), logger.String("error_description", appErr.Description))
	}
	httperrors.WriteError(w, appErr)
}
