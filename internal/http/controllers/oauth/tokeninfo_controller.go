package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
)

// TokenInfoController maneja GET /tokeninfo (sólo Bearer).
type TokenInfoController struct {
	service svc.TokenInfoService
}

func NewTokenInfoController(s svc.TokenInfoService) *TokenInfoController {
	return &TokenInfoController{service: s}
}

func (c *TokenInfoController) TokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := c.service.Info(r.Context(), clientauth.Request{
		Authorization: r.Header.Values("Authorization"),
		Query:         r.URL.Query(),
	})
	if err != nil {
		if httperrors.FromError(err).HTTPStatus == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="kangaroo"`)
		}
		writeError(w, r, "tokeninfo", err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, info)
}
